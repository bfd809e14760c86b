//go:build darwin

package preflight

import "golang.org/x/sys/unix"

// systemMemory returns total physical memory. macOS does not expose an
// available-memory counter without mach host statistics.
func systemMemory() (uint64, error) {
	return unix.SysctlUint64("hw.memsize")
}
