//go:build linux

package volume

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const mountsPath = "/proc/self/mounts"

// pseudoFilesystems never hold user files and are excluded from detection.
var pseudoFilesystems = map[string]bool{
	"proc":        true,
	"sysfs":       true,
	"devtmpfs":    true,
	"devpts":      true,
	"tmpfs":       true,
	"cgroup":      true,
	"cgroup2":     true,
	"securityfs":  true,
	"selinuxfs":   true,
	"debugfs":     true,
	"tracefs":     true,
	"pstore":      true,
	"efivarfs":    true,
	"bpf":         true,
	"autofs":      true,
	"mqueue":      true,
	"hugetlbfs":   true,
	"fusectl":     true,
	"configfs":    true,
	"binfmt_misc": true,
	"ramfs":       true,
	"rpc_pipefs":  true,
	"nsfs":        true,
	"squashfs":    true,
	"fuse.portal": true,
}

// virtualMountPrefixes cover mounts that are system plumbing regardless of
// their filesystem type.
var virtualMountPrefixes = []string{"/proc", "/sys", "/dev", "/run", "/snap"}

// Detect parses the mount table and returns the mount points of real
// filesystems, in mount order.
func Detect() ([]string, error) {
	f, err := os.Open(mountsPath)
	if err != nil {
		return nil, fmt.Errorf("read mount table: %w", err)
	}
	defer func() { _ = f.Close() }()

	roots, _, err := parseMounts(f)
	return roots, err
}

// SystemSkipPaths returns mount points a walk must never descend into:
// the pseudo-filesystem mounts of this machine. Best effort; an unreadable
// mount table yields nil.
func SystemSkipPaths() []string {
	f, err := os.Open(mountsPath)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	_, skips, err := parseMounts(f)
	if err != nil {
		return nil
	}
	return skips
}

// parseMounts splits a mount table into real volume roots and pseudo mount
// points. Format per line: device mountpoint fstype options dump pass.
func parseMounts(r io.Reader) (roots, skips []string, err error) {
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mountpoint := unescapeMountPath(fields[1])
		fstype := fields[2]

		if seen[mountpoint] {
			continue
		}
		seen[mountpoint] = true

		if pseudoFilesystems[fstype] || hasVirtualPrefix(mountpoint) {
			skips = append(skips, mountpoint)
			continue
		}
		roots = append(roots, mountpoint)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("parse mount table: %w", err)
	}
	return roots, skips, nil
}

func hasVirtualPrefix(mountpoint string) bool {
	for _, prefix := range virtualMountPrefixes {
		if mountpoint == prefix || strings.HasPrefix(mountpoint, prefix+"/") {
			return true
		}
	}
	return false
}

// unescapeMountPath decodes the octal escapes the kernel uses for
// whitespace in mount points (\040 for space and friends).
func unescapeMountPath(p string) string {
	if !strings.Contains(p, `\`) {
		return p
	}
	replacer := strings.NewReplacer(
		`\040`, " ",
		`\011`, "\t",
		`\012`, "\n",
		`\134`, `\`,
	)
	return replacer.Replace(p)
}
