//go:build linux

package volume

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMounts = `/dev/nvme0n1p2 / ext4 rw,relatime 0 0
/dev/nvme0n1p1 /boot/efi vfat rw,relatime 0 0
proc /proc proc rw,nosuid,nodev,noexec,relatime 0 0
sysfs /sys sysfs rw,nosuid,nodev,noexec,relatime 0 0
devtmpfs /dev devtmpfs rw,nosuid 0 0
devpts /dev/pts devpts rw,nosuid,noexec,relatime 0 0
tmpfs /run tmpfs rw,nosuid,nodev 0 0
cgroup2 /sys/fs/cgroup cgroup2 rw,nosuid,nodev,noexec,relatime 0 0
/dev/loop3 /snap/core22/1122 squashfs ro,nodev,relatime 0 0
/dev/sdb1 /mnt/my\040disk ext4 rw,relatime 0 0
server:/export /mnt/nas nfs4 rw,relatime 0 0
/dev/nvme0n1p2 / ext4 rw,relatime 0 0
`

func TestParseMounts_RealFilesystems(t *testing.T) {
	roots, _, err := parseMounts(strings.NewReader(sampleMounts))
	require.NoError(t, err)

	assert.Equal(t, []string{"/", "/boot/efi", "/mnt/my disk", "/mnt/nas"}, roots)
}

func TestParseMounts_PseudoFilesystemsSkipped(t *testing.T) {
	roots, skips, err := parseMounts(strings.NewReader(sampleMounts))
	require.NoError(t, err)

	for _, r := range roots {
		assert.NotContains(t, []string{"/proc", "/sys", "/dev", "/run"}, r)
	}
	assert.Contains(t, skips, "/proc")
	assert.Contains(t, skips, "/sys")
	assert.Contains(t, skips, "/dev")
	assert.Contains(t, skips, "/run")
	assert.Contains(t, skips, "/snap/core22/1122")
}

func TestParseMounts_DuplicatesDropped(t *testing.T) {
	// The sample mount table lists / twice.
	roots, _, err := parseMounts(strings.NewReader(sampleMounts))
	require.NoError(t, err)

	count := 0
	for _, r := range roots {
		if r == "/" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestParseMounts_ShortLinesIgnored(t *testing.T) {
	roots, skips, err := parseMounts(strings.NewReader("garbage\n/dev/sda1 /data ext4 rw 0 0\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/data"}, roots)
	assert.Empty(t, skips)
}

func TestUnescapeMountPath(t *testing.T) {
	assert.Equal(t, "/mnt/my disk", unescapeMountPath(`/mnt/my\040disk`))
	assert.Equal(t, "/plain", unescapeMountPath("/plain"))
	assert.Equal(t, `/odd\path`, unescapeMountPath(`/odd\134path`))
}

func TestDetect_ReturnsAtLeastOneRoot(t *testing.T) {
	roots, err := Detect()
	require.NoError(t, err)
	assert.NotEmpty(t, roots)
}
