// Package preflight validates the environment before an organize run:
// directory access, permissions, and free space on the library filesystem.
package preflight
