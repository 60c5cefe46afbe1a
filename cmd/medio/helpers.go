package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"medio/internal/config"
	"medio/internal/logging"
)

// newRunLogger builds the per-run logger writing to the console and a
// timestamped file under the log directory.
func newRunLogger(cfg *config.Config) (*slog.Logger, string, error) {
	stamp := time.Now().UTC().Format("20060102T150405")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("medio-%s.log", stamp))
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return nil, "", fmt.Errorf("init logger: %w", err)
	}
	return logger, logPath, nil
}
