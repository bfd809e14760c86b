//go:build darwin

package volume

import (
	"os"
	"path/filepath"
)

// Detect returns the boot volume plus everything mounted under /Volumes.
func Detect() ([]string, error) {
	roots := []string{"/"}

	entries, err := os.ReadDir("/Volumes")
	if err != nil {
		// A missing /Volumes still leaves the boot volume indexable.
		return roots, nil
	}
	for _, e := range entries {
		if e.Type()&os.ModeSymlink != 0 {
			// The boot volume shows up as a symlink back to /.
			continue
		}
		if e.IsDir() {
			roots = append(roots, filepath.Join("/Volumes", e.Name()))
		}
	}
	return roots, nil
}

// SystemSkipPaths returns roots a walk must not descend into: the firmlinked
// system volumes (their content is already reachable from /), devices, and
// the swap directory.
func SystemSkipPaths() []string {
	return []string{"/System/Volumes", "/dev", "/private/var/vm"}
}
