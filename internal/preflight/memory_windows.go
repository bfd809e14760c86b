//go:build windows

package preflight

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// systemMemory returns the available physical memory.
func systemMemory() (uint64, error) {
	var status windows.MemoryStatusEx
	status.Length = uint32(unsafe.Sizeof(status))
	if err := windows.GlobalMemoryStatusEx(&status); err != nil {
		return 0, err
	}
	return status.AvailPhys, nil
}
