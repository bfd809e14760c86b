//go:build windows

package volume

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Detect walks the logical drive bitmask and keeps drives with real media:
// fixed, removable, and network drives. Optical drives and drives without
// media are skipped.
func Detect() ([]string, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("enumerate logical drives: %w", err)
	}

	var roots []string
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		root := string(rune('A'+i)) + `:\`
		ptr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}
		switch windows.GetDriveType(ptr) {
		case windows.DRIVE_FIXED, windows.DRIVE_REMOVABLE, windows.DRIVE_REMOTE:
			roots = append(roots, root)
		}
	}
	return roots, nil
}

// SystemSkipPaths is empty on windows; the recycle bin and volume indexer
// directories are covered by the exclude-name defaults.
func SystemSkipPaths() []string {
	return nil
}
