package index

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"medio/internal/fingerprint"
	"medio/internal/logging"
)

// PreseedStats summarizes a pre-seed pass over the destination tree.
type PreseedStats struct {
	Files     int
	Hashed    int
	CacheHits int
}

// Preseed registers every regular file under root with the index so a run
// against an already-organized destination never re-copies and never reuses
// an occupied path. cache may be nil, in which case every file is hashed.
func Preseed(ctx context.Context, ix *Index, root string, cache *Cache, logger *slog.Logger) (PreseedStats, error) {
	logger = logging.NewComponentLogger(logger, "preseed")

	var stats PreseedStats
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// A vanished or unreadable entry is not worth aborting the seed.
			logger.Warn("skipping unreadable entry", logging.String("path", path), logging.Error(err))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
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

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		info, infoErr := entry.Info()
		if infoErr != nil {
			logger.Warn("skipping unstattable file", logging.String("path", path), logging.Error(infoErr))
			return nil
		}

		fp, hit, seedErr := seededFingerprint(ctx, cache, path, rel, info.Size(), info.ModTime().UnixNano(), logger)
		if seedErr != nil {
			logger.Warn("skipping unhashable file", logging.String("path", path), logging.Error(seedErr))
			return nil
		}
		if hit {
			stats.CacheHits++
		} else {
			stats.Hashed++
		}

		ix.Add(rel, fp)
		stats.Files++
		return nil
	})
	if err != nil {
		return stats, err
	}

	logger.Info("destination index seeded",
		logging.Int("files", stats.Files),
		logging.Int("hashed", stats.Hashed),
		logging.Int("cache_hits", stats.CacheHits),
	)
	return stats, nil
}

func seededFingerprint(ctx context.Context, cache *Cache, path, rel string, size, mtimeNS int64, logger *slog.Logger) (fingerprint.Fingerprint, bool, error) {
	if cache != nil {
		if fp, ok, err := cache.Get(ctx, rel, size, mtimeNS); err != nil {
			logger.Warn("fingerprint cache lookup failed", logging.String("path", rel), logging.Error(err))
		} else if ok {
			return fp, true, nil
		}
	}

	fp, err := fingerprint.File(path)
	if err != nil {
		return "", false, err
	}
	if cache != nil {
		if err := cache.Put(ctx, rel, size, mtimeNS, fp); err != nil {
			logger.Warn("fingerprint cache store failed", logging.String("path", rel), logging.Error(err))
		}
	}
	return fp, false, nil
}
