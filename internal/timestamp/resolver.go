// Package timestamp derives the authoritative capture timestamp used to name
// an organized file.
package timestamp

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"medio/internal/logging"
)

// exifExtensions lists extensions worth probing for embedded capture
// metadata. Video containers carry none that goexif can read, so they fall
// straight through to the modification time.
var exifExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".thm":  {},
	".raw":  {},
	".arw":  {},
	".nef":  {},
	".heic": {},
	".heif": {},
	".png":  {},
}

// Resolver picks a capture timestamp for each source file: the embedded
// capture-time metadata when present and parseable, otherwise the filesystem
// modification time. Resolution never fails; corrupt or missing metadata is
// treated as absent.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver constructs a resolver. A nil logger is replaced with a no-op.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logging.NewComponentLogger(logger, "timestamp")}
}

// Resolve returns the capture timestamp for the file at path. modTime is the
// file's filesystem modification time and serves as the always-available
// fallback. The returned time is fully populated; its calendar components are
// used verbatim downstream, with no timezone conversion.
func (r *Resolver) Resolve(path string, modTime time.Time) time.Time {
	if captured, ok := r.exifTime(path); ok {
		return captured
	}
	return modTime
}

// ResolveFile stats the file and resolves its capture timestamp. It returns
// the zero time only when the file cannot be statted at all.
func (r *Resolver) ResolveFile(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return r.Resolve(path, info.ModTime()), nil
}

func (r *Resolver) exifTime(path string) (time.Time, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := exifExtensions[ext]; !ok {
		return time.Time{}, false
	}

	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// Absent or unreadable metadata is not an error condition.
		r.logger.Debug("no usable exif metadata", logging.String("path", path), logging.Error(err))
		return time.Time{}, false
	}

	captured, err := x.DateTime()
	if err != nil || captured.IsZero() {
		return time.Time{}, false
	}
	return captured, true
}
