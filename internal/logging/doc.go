// Package logging provides the slog construction and helper conventions used
// across medio: a console key=value handler for interactive use, a JSON
// handler for machine consumption, typed attribute helpers, and context-aware
// logger decoration (run id, source path, stage).
package logging
