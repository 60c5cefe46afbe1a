package preflight

import (
	"context"

	"medio/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Source directory must already exist; the organizer never creates it.
	results = append(results, CheckSourceDirectory(cfg.Paths.SourceDir))

	// Library and log directories are created on demand, so only their
	// writability matters.
	results = append(results, CheckWritableDirectory("Library directory", cfg.Paths.LibraryDir))
	results = append(results, CheckWritableDirectory("Log directory", cfg.Paths.LogDir))

	results = append(results, CheckFreeSpace(cfg.Paths.LibraryDir, cfg.Paths.SourceDir))

	if cfg.Index.CacheEnabled {
		results = append(results, CheckWritableDirectory("Fingerprint cache", cfg.Index.CachePath))
	}

	return results
}

// AllPassed reports whether every check succeeded.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
