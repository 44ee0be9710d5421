package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	pap "github.com/logicossoftware/go-pap"
)

//go:embed sample_config.toml
var sampleConfig string

// Pack contains settings for building containers.
type Pack struct {
	MaxBytes            int64  `toml:"max_bytes"`
	QualityStart        int    `toml:"quality_start"`
	QualityStep         int    `toml:"quality_step"`
	QualityFloor        int    `toml:"quality_floor"`
	OutputDir           string `toml:"output_dir"`
	CreateOutputDir     bool   `toml:"create_output_dir"`
	KeepCompressedImage bool   `toml:"keep_compressed_image"`
	Compression         string `toml:"compression"`
	ValidateImage       bool   `toml:"validate_image"`
}

// Limits mirrors pap.Limits. Zero fields keep the library defaults.
type Limits struct {
	MaxContainerBytes  uint64 `toml:"max_container_bytes"`
	MaxImageBytes      uint64 `toml:"max_image_bytes"`
	MaxAnnotationBytes uint64 `toml:"max_annotation_bytes"`
	MaxImagePixels     uint64 `toml:"max_image_pixels"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the pap CLI.
type Config struct {
	Pack    Pack    `toml:"pack"`
	Limits  Limits  `toml:"limits"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. An explicit path
// that does not exist is not an error; defaults are used and exists is false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Compression returns the configured storage compression.
func (c *Config) Compression() pap.Compression {
	comp, err := pap.ParseCompression(c.Pack.Compression)
	if err != nil {
		return pap.CompNone
	}
	return comp
}

// LibraryLimits converts the [limits] section.
func (c *Config) LibraryLimits() pap.Limits {
	return pap.Limits{
		MaxContainerLen:  c.Limits.MaxContainerBytes,
		MaxImageLen:      c.Limits.MaxImageBytes,
		MaxAnnotationLen: c.Limits.MaxAnnotationBytes,
		MaxImagePixels:   c.Limits.MaxImagePixels,
	}
}

// ReadOptions returns the library read options implied by the config.
func (c *Config) ReadOptions() []pap.ReadOption {
	return []pap.ReadOption{pap.WithReadLimits(c.LibraryLimits())}
}

// WriteOptions returns the library write options implied by the config.
func (c *Config) WriteOptions() []pap.WriteOption {
	return []pap.WriteOption{
		pap.WithWriteLimits(c.LibraryLimits()),
		pap.WithValidateImage(c.Pack.ValidateImage),
	}
}

// BuildOptions returns the BuildAndPackage options implied by the [pack]
// section. Callers append overrides after these.
func (c *Config) BuildOptions() []pap.BuildOption {
	opts := []pap.BuildOption{
		pap.WithMaxBytes(c.Pack.MaxBytes),
		pap.WithQuality(c.Pack.QualityStart, c.Pack.QualityStep, c.Pack.QualityFloor),
		pap.WithCreateOutputDir(c.Pack.CreateOutputDir),
		pap.WithKeepCompressedImage(c.Pack.KeepCompressedImage),
		pap.WithStorageCompression(c.Compression()),
		pap.WithBuildWriteOptions(c.WriteOptions()...),
	}
	if c.Pack.OutputDir != "" {
		opts = append(opts, pap.WithOutputDir(c.Pack.OutputDir))
	}
	return opts
}
