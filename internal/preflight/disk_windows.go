//go:build windows

package preflight

import "golang.org/x/sys/windows"

// freeSpace returns the bytes available to the calling user at path.
func freeSpace(path string) (uint64, error) {
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	var free, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(ptr, &free, &total, &totalFree); err != nil {
		return 0, err
	}
	return free, nil
}
