package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOrganizeCommandPlacesFile(t *testing.T) {
	env := setupCLITestEnv(t)

	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	src := filepath.Join(env.sourceDir, "IMG_0001.JPG")
	if err := os.WriteFile(src, []byte("photo"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := os.Chtimes(src, when, when); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	out, errOut, err := runCLI(t, []string{"organize"}, env.configPath)
	if err != nil {
		t.Fatalf("organize: %v (stderr: %s)", err, errOut)
	}
	requireContains(t, out, "placed=1")

	placed := filepath.Join(env.libraryDir, "2024", "05", "20240501_120000.jpg")
	if _, err := os.Stat(placed); err != nil {
		t.Fatalf("expected placed file at %s: %v", placed, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source should have been moved, stat err = %v", err)
	}
}

func TestOrganizeCommandDryRun(t *testing.T) {
	env := setupCLITestEnv(t)

	src := filepath.Join(env.sourceDir, "clip.mp4")
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	out, errOut, err := runCLI(t, []string{"organize", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("organize --dry-run: %v (stderr: %s)", err, errOut)
	}
	requireContains(t, out, "Dry run; no files were moved.")
	requireContains(t, out, "would move")

	if _, err := os.Stat(src); err != nil {
		t.Fatalf("dry run must not move the source: %v", err)
	}
}

func TestCheckCommandReportsResults(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "Source directory")
	requireContains(t, out, "OK")
}
