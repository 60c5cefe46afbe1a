package index

import (
	"sync"

	"medio/internal/fingerprint"
	"medio/internal/services"
)

// Index is the per-run registry of destination paths and the content placed
// at them. It detects duplicates and name collisions before any I/O occurs
// and is the single point of synchronization between pipeline workers.
//
// Paths are stored relative to the library root, slash-separated. Entries
// grow monotonically over a run; nothing is ever removed.
type Index struct {
	mu            sync.Mutex
	byFingerprint map[fingerprint.Fingerprint]string
	byPath        map[string]fingerprint.Fingerprint
	maxAttempts   int
}

// New constructs an empty index. maxAttempts bounds the collision counter
// search; values below one fall back to a single attempt.
func New(maxAttempts int) *Index {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Index{
		byFingerprint: make(map[fingerprint.Fingerprint]string),
		byPath:        make(map[string]fingerprint.Fingerprint),
		maxAttempts:   maxAttempts,
	}
}

// Lookup returns the destination path already assigned to this content, if
// this exact content was placed earlier in the run or pre-seeded from the
// destination tree.
func (ix *Index) Lookup(fp fingerprint.Fingerprint) (string, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	path, ok := ix.byFingerprint[fp]
	return path, ok
}

// Add registers an existing (path, fingerprint) binding, typically during
// pre-seeding. The first path seen for a fingerprint stays canonical; later
// paths with the same content still occupy their path slot so collisions
// against them are detected.
func (ix *Index) Add(path string, fp fingerprint.Fingerprint) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.byPath[path]; !ok {
		ix.byPath[path] = fp
	}
	if _, ok := ix.byFingerprint[fp]; !ok {
		ix.byFingerprint[fp] = path
	}
}

// Len returns the number of occupied destination paths.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.byPath)
}

// Resolve executes lookup plus reservation as one atomic unit.
//
// When the content is already indexed, the existing canonical path is
// returned with existing=true and nothing is reserved. Otherwise render is
// probed with counter 0, then 1, 2, ... until an unoccupied path is found,
// which is bound to the fingerprint and returned with existing=false.
//
// A collision against a template without a counter token is a configuration
// error: silently overwriting is never acceptable. Exceeding the attempt
// bound signals a template or data anomaly and aborts the run.
func (ix *Index) Resolve(fp fingerprint.Fingerprint, render func(counter int) string, hasCounter bool) (string, bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if existing, ok := ix.byFingerprint[fp]; ok {
		return existing, true, nil
	}

	candidate := render(0)
	if _, occupied := ix.byPath[candidate]; !occupied {
		ix.bind(candidate, fp)
		return candidate, false, nil
	}

	if !hasCounter {
		return "", false, services.Wrap(
			services.ErrConfiguration,
			"deciding",
			"reserve path",
			"Destination "+candidate+" is taken and the format template has no counter token to disambiguate",
			nil,
		)
	}

	for counter := 1; counter < ix.maxAttempts; counter++ {
		candidate = render(counter)
		if _, occupied := ix.byPath[candidate]; !occupied {
			ix.bind(candidate, fp)
			return candidate, false, nil
		}
	}

	return "", false, services.Wrap(
		services.ErrCollisionExhausted,
		"deciding",
		"reserve path",
		"No free destination found near "+render(0),
		nil,
	)
}

// ReleaseFingerprint drops the canonical-path binding for content whose Place
// decision failed to commit. The reserved path stays occupied, since the
// executor may have partially written it, but later files with the same
// content must not be treated as duplicates of a placement that never
// happened.
func (ix *Index) ReleaseFingerprint(fp fingerprint.Fingerprint) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.byFingerprint, fp)
}

// bind assumes ix.mu is held.
func (ix *Index) bind(path string, fp fingerprint.Fingerprint) {
	ix.byPath[path] = fp
	ix.byFingerprint[fp] = path
}
