package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"medio/internal/config"
	"medio/internal/logging"
	"medio/internal/organize"
	"medio/internal/scan"
	"medio/internal/services"
)

// RunFunc processes a batch of settled source files.
type RunFunc func(ctx context.Context, candidates []scan.Candidate) (*organize.Summary, error)

// observation tracks one source file across poll ticks.
type observation struct {
	size    int64
	modTime time.Time
	stable  time.Time // when the file was last seen changing
}

// Watcher polls the source directory and hands files to the organize
// pipeline once they stop growing. Cameras and network copies write files
// incrementally, so a file only counts as ready after its size and
// modification time have held still for the settle window.
type Watcher struct {
	cfg    *config.Config
	run    RunFunc
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	pending map[string]observation

	// now is swapped out in tests to step through settle windows.
	now func() time.Time
}

// New constructs a watcher. The lock file lives next to the logs and keeps a
// second watcher off the same source tree.
func New(cfg *config.Config, run RunFunc, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil || run == nil {
		return nil, errors.New("watcher requires config and run function")
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "medio.lock")
	return &Watcher{
		cfg:      cfg,
		run:      run,
		logger:   logging.NewComponentLogger(logger, "watch"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		pending:  make(map[string]observation),
		now:      time.Now,
	}, nil
}

// LockPath returns the path of the single-instance lock file.
func (w *Watcher) LockPath() string {
	return w.lockPath
}

// Run polls until the context is cancelled. Per-file organize errors are
// logged and polling continues; a fatal pipeline error stops the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(w.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another watcher holds %s", w.lockPath)
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("failed to release watch lock", logging.Error(err))
		}
	}()

	w.logger.Info("watching source directory",
		logging.String("source_dir", w.cfg.Paths.SourceDir),
		logging.Int("poll_interval_seconds", w.cfg.Watch.PollInterval),
		logging.Int("settle_seconds", w.cfg.Watch.SettleSeconds),
	)

	ticker := time.NewTicker(time.Duration(w.cfg.Watch.PollInterval) * time.Second)
	defer ticker.Stop()

	for {
		if err := w.Tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick performs one poll cycle: refresh observations, collect files that have
// settled, and hand them to the run function.
func (w *Watcher) Tick(ctx context.Context) error {
	candidates, err := scan.Sources(w.cfg.Paths.SourceDir, w.cfg.AcceptsExtension)
	if err != nil {
		// The source tree can vanish while external storage remounts.
		w.logger.Warn("source scan failed", logging.Error(err))
		return nil
	}

	seen := make(map[string]struct{}, len(candidates))
	var ready []scan.Candidate
	now := w.now()
	settle := time.Duration(w.cfg.Watch.SettleSeconds) * time.Second

	for _, candidate := range candidates {
		seen[candidate.Path] = struct{}{}
		prev, known := w.pending[candidate.Path]
		if !known || prev.size != candidate.Size || !prev.modTime.Equal(candidate.ModTime) {
			w.pending[candidate.Path] = observation{size: candidate.Size, modTime: candidate.ModTime, stable: now}
			continue
		}
		if now.Sub(prev.stable) >= settle {
			ready = append(ready, candidate)
		}
	}

	for path := range w.pending {
		if _, ok := seen[path]; !ok {
			delete(w.pending, path)
		}
	}

	if len(ready) == 0 {
		return nil
	}

	summary, err := w.run(ctx, ready)
	if err != nil && services.Fatal(err) {
		return err
	}
	if err != nil {
		w.logger.Warn("organize batch failed", logging.Error(err))
	}
	for _, candidate := range ready {
		delete(w.pending, candidate.Path)
	}
	if summary != nil {
		w.logger.Info("organized settled files",
			logging.Int("placed", summary.Placed),
			logging.Int("duplicates", summary.Duplicates),
			logging.Int("failed", summary.Failed),
		)
	}
	return nil
}
