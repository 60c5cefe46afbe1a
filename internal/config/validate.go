package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"medio/internal/pathformat"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SourceDir) == "" {
		return errors.New("paths.source_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if c.Paths.SourceDir == c.Paths.LibraryDir {
		return errors.New("paths.source_dir and paths.library_dir must differ")
	}
	return nil
}

func (c *Config) validateOrganize() error {
	if c.Organize.Format == "" {
		return errors.New("organize.format must be set")
	}
	if _, err := pathformat.Parse(c.Organize.Format); err != nil {
		return fmt.Errorf("organize.format: %w", err)
	}
	if len(c.Organize.Extensions) == 0 {
		return errors.New("organize.extensions must list at least one extension")
	}
	if c.Organize.Locale != "" {
		// Only the language tag before any encoding suffix is validated;
		// "zh_CN.utf8" checks as "zh-CN".
		tag := c.Organize.Locale
		if idx := strings.IndexByte(tag, '.'); idx >= 0 {
			tag = tag[:idx]
		}
		if _, err := language.Parse(strings.ReplaceAll(tag, "_", "-")); err != nil {
			return fmt.Errorf("organize.locale: unrecognized locale %q", c.Organize.Locale)
		}
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.PollInterval <= 0 {
		return errors.New("watch.poll_interval must be positive")
	}
	if c.Watch.SettleSeconds < 0 {
		return errors.New("watch.settle_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
