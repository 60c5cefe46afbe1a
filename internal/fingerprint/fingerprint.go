// Package fingerprint computes content digests used as the sole identity for
// duplicate detection. Filenames and timestamps never participate.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"medio/internal/services"
)

// Fingerprint is a fixed-length digest of a file's full byte content. Two
// files with identical bytes always produce equal fingerprints, across runs
// and platforms.
type Fingerprint string

// Empty reports whether the fingerprint carries no digest.
func (f Fingerprint) Empty() bool { return f == "" }

// Reader digests an already-open byte stream in a single pass.
func Reader(r io.Reader) (Fingerprint, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", services.Wrap(services.ErrRead, "fingerprinting", "consume stream", "Failed to read file content", err)
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
}

// File digests the file at path. The content is streamed, never buffered
// whole, since source media can be large.
func File(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrRead, "fingerprinting", "open file", "Failed to open file for hashing", err)
	}
	defer f.Close()
	return Reader(f)
}
