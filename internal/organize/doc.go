// Package organize orchestrates the per-file pipeline: resolve a capture
// timestamp, fingerprint the content, consult the destination index, format a
// destination path, execute the resulting decision, and aggregate a run
// summary.
package organize
