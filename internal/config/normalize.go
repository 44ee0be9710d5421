package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePack(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePack() error {
	var err error
	if strings.TrimSpace(c.Pack.OutputDir) != "" {
		if c.Pack.OutputDir, err = expandPath(strings.TrimSpace(c.Pack.OutputDir)); err != nil {
			return fmt.Errorf("pack.output_dir: %w", err)
		}
	} else {
		c.Pack.OutputDir = ""
	}
	c.Pack.Compression = strings.ToLower(strings.TrimSpace(c.Pack.Compression))
	if c.Pack.Compression == "" {
		c.Pack.Compression = defaultCompression
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	}
}
