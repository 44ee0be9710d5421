package config

import (
	"errors"
	"fmt"

	pap "github.com/logicossoftware/go-pap"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePack(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePack() error {
	p := c.Pack
	if p.MaxBytes <= 0 {
		return errors.New("pack.max_bytes must be positive")
	}
	if p.QualityStart < 1 || p.QualityStart > 100 {
		return errors.New("pack.quality_start must be between 1 and 100")
	}
	if p.QualityFloor < 1 || p.QualityFloor > 100 {
		return errors.New("pack.quality_floor must be between 1 and 100")
	}
	if p.QualityStep < 1 {
		return errors.New("pack.quality_step must be at least 1")
	}
	if p.QualityFloor > p.QualityStart {
		return fmt.Errorf("pack.quality_floor (%d) must not exceed pack.quality_start (%d)", p.QualityFloor, p.QualityStart)
	}
	if _, err := pap.ParseCompression(p.Compression); err != nil {
		return fmt.Errorf("pack.compression: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want auto, console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
