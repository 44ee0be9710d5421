package config

import pap "github.com/logicossoftware/go-pap"

const (
	defaultConfigPath    = "~/.config/pap/config.toml"
	projectConfigName    = "pap.toml"
	defaultCompression   = "none"
	defaultLogFormat     = "auto"
	defaultLogLevel      = "info"
	defaultKeepImage     = false
	defaultCreateOutDir  = false
	defaultValidateImage = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	b := pap.DefaultBudget()
	return Config{
		Pack: Pack{
			MaxBytes:            b.MaxBytes,
			QualityStart:        b.QualityStart,
			QualityStep:         b.QualityStep,
			QualityFloor:        b.QualityFloor,
			KeepCompressedImage: defaultKeepImage,
			CreateOutputDir:     defaultCreateOutDir,
			Compression:         defaultCompression,
			ValidateImage:       defaultValidateImage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
