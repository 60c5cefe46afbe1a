package testsupport

import (
	"path/filepath"
	"testing"

	"medio/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SourceDir = filepath.Join(base, "incoming")
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Index.CachePath = filepath.Join(base, "index.db")
	cfg.Index.CacheEnabled = false
	cfg.Organize.Workers = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithFormat overrides the destination path template.
func WithFormat(format string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Organize.Format = format
	}
}

// WithWorkers overrides the pipeline worker count.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Organize.Workers = workers
	}
}

// WithDeleteDuplicates toggles the duplicate-removal policy.
func WithDeleteDuplicates(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Organize.DeleteDuplicates = enabled
	}
}

// WithCacheEnabled turns the fingerprint cache on.
func WithCacheEnabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Index.CacheEnabled = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SourceDir)
}
