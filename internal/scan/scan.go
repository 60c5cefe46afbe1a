// Package scan discovers candidate media files under the source tree. The
// organize pipeline consumes the resulting ordered slice; traversal mechanics
// stay here.
package scan

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// Candidate describes one source file awaiting organization.
type Candidate struct {
	Path      string // absolute path
	Extension string // lower-cased, no leading dot
	Size      int64
	ModTime   time.Time
}

// Sources walks root and returns accepted media files in stable lexical
// order. Hidden files and directories are skipped, as are files whose
// extension the accept function rejects. Unreadable entries are skipped
// rather than failing the walk.
func Sources(root string, accepts func(ext string) bool) ([]Candidate, error) {
	var candidates []Candidate

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		name := entry.Name()
		if entry.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !entry.Type().IsRegular() {
			return nil
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
		if accepts != nil && !accepts(ext) {
			return nil
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return nil
		}

		candidates = append(candidates, Candidate{
			Path:      path,
			Extension: ext,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}
