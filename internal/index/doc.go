// Package index tracks which destination paths are occupied and by which
// content during an organize run: duplicate lookup, atomic path reservation
// with counter disambiguation, pre-seeding from an existing destination tree,
// and a SQLite fingerprint cache that keeps repeated pre-seeds cheap.
package index
