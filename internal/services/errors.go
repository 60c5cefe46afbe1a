package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRead marks a failure to fully consume a source file's byte stream.
	ErrRead = errors.New("read error")
	// ErrIO marks an executor failure while copying, moving, or deleting a file.
	ErrIO = errors.New("io error")
	// ErrConfiguration marks a configuration that cannot produce a safe mapping,
	// such as a format template without a counter token when collisions occur.
	ErrConfiguration = errors.New("configuration error")
	// ErrCollisionExhausted marks a disambiguation search that exceeded its bound.
	ErrCollisionExhausted = errors.New("collision attempts exhausted")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether an error must abort the entire run rather than the
// current file. Per-file read and executor failures are collected and skipped;
// configuration and counter-exhaustion failures indicate the run cannot
// produce a safe mapping for this dataset.
func Fatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrCollisionExhausted)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
