package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOrganize()
	if err := c.normalizeIndex(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SourceDir, err = expandPath(c.Paths.SourceDir); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOrganize() {
	c.Organize.Format = strings.TrimSpace(c.Organize.Format)
	c.Organize.Locale = strings.TrimSpace(c.Organize.Locale)
	if c.Organize.Workers <= 0 {
		c.Organize.Workers = defaultWorkers
	}
	if c.Organize.MaxCounterAttempts <= 0 {
		c.Organize.MaxCounterAttempts = defaultMaxCounterAttempts
	}
	if len(c.Organize.Extensions) == 0 {
		c.Organize.Extensions = append([]string(nil), defaultExtensions...)
	}
	normalized := make([]string, 0, len(c.Organize.Extensions))
	for _, ext := range c.Organize.Extensions {
		trimmed := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	c.Organize.Extensions = normalized
}

func (c *Config) normalizeIndex() error {
	if strings.TrimSpace(c.Index.CachePath) == "" {
		c.Index.CachePath = defaultCachePath
	}
	var err error
	if c.Index.CachePath, err = expandPath(c.Index.CachePath); err != nil {
		return fmt.Errorf("index.cache_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
