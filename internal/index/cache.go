package index

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"medio/internal/fingerprint"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current cache schema version. Bump this when the
// schema changes; a mismatched cache is discarded and rebuilt.
const schemaVersion = 1

// ErrSchemaMismatch indicates the cache schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Cache persists destination fingerprints between runs so pre-seeding only
// re-hashes files whose size or modification time changed.
type Cache struct {
	db   *sql.DB
	path string
}

// OpenCache initializes or connects to the fingerprint cache database.
func OpenCache(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{db: db, path: path}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the cache database location.
func (c *Cache) Path() string {
	return c.path
}

func (c *Cache) initSchema(ctx context.Context) error {
	var tableExists int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return c.createSchema(ctx)
	}

	var version int
	err = c.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: cache has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, c.path)
	}
	return nil
}

func (c *Cache) createSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Get returns the cached fingerprint for relPath when the stored size and
// mtime still match the file on disk.
func (c *Cache) Get(ctx context.Context, relPath string, size, mtimeNS int64) (fingerprint.Fingerprint, bool, error) {
	var (
		storedSize  int64
		storedMtime int64
		fp          string
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT size_bytes, mtime_ns, fingerprint FROM fingerprints WHERE rel_path = ?",
		relPath,
	).Scan(&storedSize, &storedMtime, &fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query fingerprint: %w", err)
	}
	if storedSize != size || storedMtime != mtimeNS {
		return "", false, nil
	}
	return fingerprint.Fingerprint(fp), true, nil
}

// Put stores or refreshes the fingerprint for relPath.
func (c *Cache) Put(ctx context.Context, relPath string, size, mtimeNS int64, fp fingerprint.Fingerprint) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO fingerprints (rel_path, size_bytes, mtime_ns, fingerprint, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(rel_path) DO UPDATE SET
             size_bytes = excluded.size_bytes,
             mtime_ns = excluded.mtime_ns,
             fingerprint = excluded.fingerprint,
             updated_at = excluded.updated_at`,
		relPath, size, mtimeNS, string(fp), now,
	)
	if err != nil {
		return fmt.Errorf("store fingerprint: %w", err)
	}
	return nil
}

// Forget drops the cached entry for relPath.
func (c *Cache) Forget(ctx context.Context, relPath string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM fingerprints WHERE rel_path = ?", relPath); err != nil {
		return fmt.Errorf("delete fingerprint: %w", err)
	}
	return nil
}
