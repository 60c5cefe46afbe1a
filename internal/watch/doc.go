// Package watch polls the source directory and organizes files once they
// have stopped changing, so half-copied files are never picked up.
package watch
