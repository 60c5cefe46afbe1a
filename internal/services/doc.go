// Package services defines shared utilities consumed by the organize pipeline
// and its collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, source paths, and stage
//     names for logging.
//   - Structured error markers plus the Wrap helper that keep per-file and
//     run-fatal failures distinguishable across the pipeline.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform.
package services
