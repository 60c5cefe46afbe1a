package organize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"medio/internal/config"
	"medio/internal/fingerprint"
	"medio/internal/index"
	"medio/internal/logging"
	"medio/internal/scan"
	"medio/internal/services"
	"medio/internal/testsupport"
)

func newTestPipeline(t *testing.T, cfg *config.Config, exec Executor, opts ...Option) (*Pipeline, *index.Index) {
	t.Helper()
	ix := index.New(cfg.Organize.MaxCounterAttempts)
	p, err := New(cfg, ix, exec, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, ix
}

func sourceCandidates(t *testing.T, cfg *config.Config) []scan.Candidate {
	t.Helper()
	candidates, err := scan.Sources(cfg.Paths.SourceDir, cfg.AcceptsExtension)
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	return candidates
}

func TestPipelinePlacesFilesByTimestamp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	src := filepath.Join(cfg.Paths.SourceDir, "IMG_0001.JPG")
	testsupport.WriteFileModTime(t, src, []byte("photo-one"), when)

	p, _ := newTestPipeline(t, cfg, NewMoveExecutor())
	summary, err := p.Run(context.Background(), sourceCandidates(t, cfg))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Placed != 1 || summary.Duplicates != 0 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: placed=%d duplicates=%d failed=%d", summary.Placed, summary.Duplicates, summary.Failed)
	}

	want := filepath.Join(cfg.Paths.LibraryDir, "2024", "05", "20240501_120000.jpg")
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("placed file missing: %v", err)
	}
	if string(data) != "photo-one" {
		t.Fatalf("placed content = %q", data)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source should have been moved, stat err = %v", err)
	}
}

func TestPipelineDeletesDuplicateSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	content := []byte("same bytes everywhere")
	a := filepath.Join(cfg.Paths.SourceDir, "a.jpg")
	b := filepath.Join(cfg.Paths.SourceDir, "sub", "b.jpg")
	testsupport.WriteFileModTime(t, a, content, time.Date(2023, 1, 2, 3, 4, 5, 0, time.Local))
	testsupport.WriteFileModTime(t, b, content, time.Date(2024, 6, 7, 8, 9, 10, 0, time.Local))

	p, _ := newTestPipeline(t, cfg, NewMoveExecutor())
	summary, err := p.Run(context.Background(), sourceCandidates(t, cfg))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Placed != 1 || summary.Duplicates != 1 {
		t.Fatalf("unexpected summary: placed=%d duplicates=%d", summary.Placed, summary.Duplicates)
	}
	if _, err := os.Stat(a); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("first source should have been moved, stat err = %v", err)
	}
	if _, err := os.Stat(b); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("duplicate source should have been deleted, stat err = %v", err)
	}
}

func TestPipelineKeepsDuplicateWhenDeletionDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDeleteDuplicates(false))
	content := []byte("identical")
	a := filepath.Join(cfg.Paths.SourceDir, "a.jpg")
	b := filepath.Join(cfg.Paths.SourceDir, "b.jpg")
	testsupport.WriteFileModTime(t, a, content, time.Date(2023, 1, 2, 3, 4, 5, 0, time.Local))
	testsupport.WriteFileModTime(t, b, content, time.Date(2023, 1, 2, 3, 4, 6, 0, time.Local))

	p, _ := newTestPipeline(t, cfg, NewMoveExecutor())
	summary, err := p.Run(context.Background(), sourceCandidates(t, cfg))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Duplicates != 1 {
		t.Fatalf("duplicates = %d, want 1", summary.Duplicates)
	}
	if _, err := os.Stat(b); err != nil {
		t.Fatalf("duplicate source should survive: %v", err)
	}
}

func TestPipelineDisambiguatesCollisionsWithCounter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	for i, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		path := filepath.Join(cfg.Paths.SourceDir, name)
		testsupport.WriteFileModTime(t, path, []byte{byte(i)}, when)
	}

	p, _ := newTestPipeline(t, cfg, NewMoveExecutor())
	summary, err := p.Run(context.Background(), sourceCandidates(t, cfg))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Placed != 3 {
		t.Fatalf("placed = %d, want 3", summary.Placed)
	}

	// Candidates arrive in lexical order and the pipeline runs one worker,
	// so counter assignment follows file order.
	want := []string{
		"2024/05/20240501_120000.jpg",
		"2024/05/20240501_120000-1.jpg",
		"2024/05/20240501_120000-2.jpg",
	}
	for i, d := range summary.Decisions {
		if d.Kind != DecisionPlace {
			t.Fatalf("decision %d kind = %s", i, d.Kind)
		}
		if d.Path != want[i] {
			t.Fatalf("decision %d path = %q, want %q", i, d.Path, want[i])
		}
		if _, err := os.Stat(filepath.Join(cfg.Paths.LibraryDir, filepath.FromSlash(d.Path))); err != nil {
			t.Fatalf("placed file missing: %v", err)
		}
	}
}

func TestPipelineCollisionWithoutCounterIsFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFormat("%Y/%Y%m%d.%e"))
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	testsupport.WriteFileModTime(t, filepath.Join(cfg.Paths.SourceDir, "a.jpg"), []byte("first"), when)
	testsupport.WriteFileModTime(t, filepath.Join(cfg.Paths.SourceDir, "b.jpg"), []byte("second"), when)

	p, _ := newTestPipeline(t, cfg, NewMoveExecutor())
	summary, err := p.Run(context.Background(), sourceCandidates(t, cfg))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("Run err = %v, want configuration error", err)
	}
	if summary.Placed != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: placed=%d failed=%d", summary.Placed, summary.Failed)
	}
}

func TestPipelineIdempotentWithPreseed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	src := filepath.Join(cfg.Paths.SourceDir, "a.jpg")
	testsupport.WriteFileModTime(t, src, []byte("keeper"), when)

	p, _ := newTestPipeline(t, cfg, NewMoveExecutor())
	if _, err := p.Run(context.Background(), sourceCandidates(t, cfg)); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// A second run over a re-appeared copy must recognize the already
	// organized content instead of placing it again.
	testsupport.WriteFileModTime(t, src, []byte("keeper"), when)
	ix := index.New(cfg.Organize.MaxCounterAttempts)
	if _, err := index.Preseed(context.Background(), ix, cfg.Paths.LibraryDir, nil, logging.NewNop()); err != nil {
		t.Fatalf("Preseed: %v", err)
	}
	p2, err := New(cfg, ix, NewMoveExecutor(), logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := p2.Run(context.Background(), sourceCandidates(t, cfg))
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Placed != 0 || summary.Duplicates != 1 {
		t.Fatalf("unexpected summary: placed=%d duplicates=%d", summary.Placed, summary.Duplicates)
	}
	if d := summary.Decisions[0]; d.ExistingPath != "2024/05/20240501_120000.jpg" {
		t.Fatalf("existing path = %q", d.ExistingPath)
	}
}

func TestPipelineDryRunLeavesFilesAlone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	a := filepath.Join(cfg.Paths.SourceDir, "a.jpg")
	b := filepath.Join(cfg.Paths.SourceDir, "b.jpg")
	testsupport.WriteFileModTime(t, a, []byte("dup"), when)
	testsupport.WriteFileModTime(t, b, []byte("dup"), when)

	exec := NewDryRunExecutor()
	p, _ := newTestPipeline(t, cfg, exec)
	summary, err := p.Run(context.Background(), sourceCandidates(t, cfg))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Placed != 1 || summary.Duplicates != 1 {
		t.Fatalf("unexpected summary: placed=%d duplicates=%d", summary.Placed, summary.Duplicates)
	}
	for _, path := range []string{a, b} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("dry run must not touch %s: %v", path, err)
		}
	}
	ops := exec.Ops()
	if len(ops) != 2 {
		t.Fatalf("recorded ops = %d, want 2", len(ops))
	}
	if ops[0].Op != "move" || ops[1].Op != "delete" {
		t.Fatalf("ops = %+v", ops)
	}
}

func TestPipelineRefreshesFingerprintCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cache, err := index.OpenCache(cfg.Index.CachePath)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	src := filepath.Join(cfg.Paths.SourceDir, "a.jpg")
	testsupport.WriteFileModTime(t, src, []byte("cached"), when)
	wantFP, err := fingerprint.File(src)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	p, _ := newTestPipeline(t, cfg, NewMoveExecutor(), WithCache(cache))
	if _, err := p.Run(context.Background(), sourceCandidates(t, cfg)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rel := "2024/05/20240501_120000.jpg"
	dst := filepath.Join(cfg.Paths.LibraryDir, filepath.FromSlash(rel))
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat placed file: %v", err)
	}
	fp, ok, err := cache.Get(context.Background(), rel, info.Size(), info.ModTime().UnixNano())
	if err != nil || !ok {
		t.Fatalf("cache lookup: ok=%v err=%v", ok, err)
	}
	if fp != wantFP {
		t.Fatalf("cached fingerprint = %s, want %s", fp, wantFP)
	}
}

func TestPipelinePlacementFailureIsPerFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	testsupport.WriteFileModTime(t, filepath.Join(cfg.Paths.SourceDir, "a.jpg"), []byte("one"), when)
	testsupport.WriteFileModTime(t, filepath.Join(cfg.Paths.SourceDir, "b.jpg"), []byte("two"), when)

	p, _ := newTestPipeline(t, cfg, failingExecutor{failOn: "a.jpg"})
	summary, err := p.Run(context.Background(), sourceCandidates(t, cfg))
	if err != nil {
		t.Fatalf("Run should survive a per-file placement error, got %v", err)
	}
	if summary.Failed != 1 || summary.Placed != 1 {
		t.Fatalf("unexpected summary: placed=%d failed=%d", summary.Placed, summary.Failed)
	}
	if !errors.Is(summary.Failures[0].Err, services.ErrIO) {
		t.Fatalf("failure err = %v, want I/O error", summary.Failures[0].Err)
	}
}

type failingExecutor struct {
	failOn string
}

func (f failingExecutor) CopyOrMove(src, dst string) error {
	if filepath.Base(src) == f.failOn {
		return errors.New("disk full")
	}
	return fileCopyMove(src, dst)
}

func (f failingExecutor) Delete(src string) error { return os.Remove(src) }

func fileCopyMove(src, dst string) error {
	return NewMoveExecutor().CopyOrMove(src, dst)
}
