package preflight

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// CheckSourceDirectory verifies that the source directory exists and is
// readable. A missing source is an error: there is nothing to organize and
// the path is most likely a typo.
func CheckSourceDirectory(path string) Result {
	const name = "Source directory"
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckWritableDirectory verifies that path, or the nearest existing ancestor
// when path does not exist yet, can be written to. Directories the organizer
// creates on demand only need a writable parent.
func CheckWritableDirectory(name, path string) Result {
	existing, err := nearestExisting(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := unix.Access(existing, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s not writable: %v)", path, existing, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", path)}
}

// CheckFreeSpace compares the space available on the library filesystem
// against the total size of the source tree. Moves within one filesystem
// need no headroom, but cross-device placement copies every byte.
func CheckFreeSpace(libraryDir, sourceDir string) Result {
	const name = "Free space"

	required, err := treeSize(sourceDir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("cannot size source tree: %v", err)}
	}

	existing, err := nearestExisting(libraryDir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("cannot resolve library path: %v", err)}
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(existing, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("statfs %s: %v", existing, err)}
	}
	available := stat.Bavail * uint64(stat.Bsize)

	detail := fmt.Sprintf("%s available, %s queued", formatBytes(available), formatBytes(uint64(required)))
	if available < uint64(required) {
		return Result{Name: name, Detail: detail + " (insufficient)"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// nearestExisting walks up from path until it finds a component that exists.
func nearestExisting(path string) (string, error) {
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			return current, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current, nil
		}
		current = parent
	}
}

func treeSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
