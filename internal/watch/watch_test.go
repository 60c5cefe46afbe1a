package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"medio/internal/index"
	"medio/internal/logging"
	"medio/internal/organize"
	"medio/internal/scan"
	"medio/internal/testsupport"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestWatcher(t *testing.T, run RunFunc) (*Watcher, *fakeClock, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Watch.SettleSeconds = 30
	w, err := New(cfg, run, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	clock := &fakeClock{current: time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)}
	w.now = clock.now
	return w, clock, cfg.Paths.SourceDir
}

func collectRuns(batches *[][]scan.Candidate) RunFunc {
	return func(ctx context.Context, candidates []scan.Candidate) (*organize.Summary, error) {
		*batches = append(*batches, candidates)
		return &organize.Summary{}, nil
	}
}

func TestWatcherWaitsForSettleWindow(t *testing.T) {
	var batches [][]scan.Candidate
	w, clock, sourceDir := newTestWatcher(t, collectRuns(&batches))

	path := filepath.Join(sourceDir, "a.jpg")
	testsupport.WriteFileModTime(t, path, []byte("settling"), clock.current)

	// First tick only registers the file.
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("file organized before settling: %d batches", len(batches))
	}

	// Still inside the settle window.
	clock.advance(10 * time.Second)
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("file organized inside settle window")
	}

	clock.advance(25 * time.Second)
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("batches = %v", batches)
	}
	if batches[0][0].Path != path {
		t.Fatalf("organized %s, want %s", batches[0][0].Path, path)
	}
}

func TestWatcherRestartsSettleOnChange(t *testing.T) {
	var batches [][]scan.Candidate
	w, clock, sourceDir := newTestWatcher(t, collectRuns(&batches))

	path := filepath.Join(sourceDir, "a.jpg")
	testsupport.WriteFileModTime(t, path, []byte("part"), clock.current)
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	// The file keeps growing, restarting the settle window.
	clock.advance(20 * time.Second)
	testsupport.WriteFileModTime(t, path, []byte("part two"), clock.current)
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	clock.advance(20 * time.Second)
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("growing file organized too early")
	}

	clock.advance(15 * time.Second)
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(batches))
	}
}

func TestWatcherForgetsRemovedFiles(t *testing.T) {
	var batches [][]scan.Candidate
	w, clock, sourceDir := newTestWatcher(t, collectRuns(&batches))

	path := filepath.Join(sourceDir, "a.jpg")
	testsupport.WriteFileModTime(t, path, []byte("gone soon"), clock.current)
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	clock.advance(time.Minute)
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("removed file was organized")
	}
	if len(w.pending) != 0 {
		t.Fatalf("pending = %d entries, want 0", len(w.pending))
	}
}

func TestWatcherOrganizesSettledFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Watch.SettleSeconds = 0

	ix := index.New(cfg.Organize.MaxCounterAttempts)
	pipeline, err := organize.New(cfg, ix, organize.NewMoveExecutor(), logging.NewNop())
	if err != nil {
		t.Fatalf("organize.New: %v", err)
	}
	w, err := New(cfg, pipeline.Run, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	src := filepath.Join(cfg.Paths.SourceDir, "a.jpg")
	testsupport.WriteFileModTime(t, src, []byte("settled"), when)

	// Register, then settle immediately.
	for i := 0; i < 2; i++ {
		if err := w.Tick(context.Background()); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}

	placed := filepath.Join(cfg.Paths.LibraryDir, "2024", "05", "20240501_120000.jpg")
	if _, err := os.Stat(placed); err != nil {
		t.Fatalf("settled file was not organized: %v", err)
	}
}

func TestWatcherRefusesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	w, err := New(cfg, collectRuns(new([][]scan.Candidate)), logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	other := flock.New(w.LockPath())
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer other.Unlock()

	err = w.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "another watcher") {
		t.Fatalf("Run err = %v, want lock conflict", err)
	}
}
