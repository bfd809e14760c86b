// Package volume enumerates the storage volumes visible to this machine and
// resolves which roots an index run covers.
//
// Detection is platform-specific (see the per-GOOS files); resolution is a
// pure function over the detected set and the volume configuration.
package volume

import (
	"os"
	"path/filepath"
	"strings"

	dferrors "github.com/dfind/dfind/internal/errors"
)

// Kind records how a volume entered the resolved set.
type Kind string

const (
	// KindDetected volumes come from the platform mount table.
	KindDetected Kind = "detected"
	// KindCustom volumes come from the volumes.custom config list.
	KindCustom Kind = "custom"
)

// Volume is one root an index run walks.
type Volume struct {
	// ID identifies the volume in the store. It is the cleaned root path,
	// e.g. "/" or "/mnt/data" on unix, `C:\` on windows.
	ID string
	// Root is the absolute path the walk starts from. Equal to ID.
	Root string
	// Kind is detected or custom.
	Kind Kind
}

// Options filters and extends the detected volume set.
type Options struct {
	// Ignored removes detected volumes from the set.
	Ignored []string
	// Whitelist, when non-empty, keeps only the listed detected volumes.
	// It never filters custom locations.
	Whitelist []string
	// Custom locations are indexed in addition to detected volumes and
	// come first in the resolved order.
	Custom []string
}

// Resolve computes the ordered set of volumes to index: custom locations
// first, then detected volumes minus the ignored set, intersected with the
// whitelist when one is configured. Duplicates are dropped keeping the first
// occurrence.
//
// Unreachable custom locations are skipped and reported as warnings; they
// never fail the resolution. An empty result with no warnings is a valid
// outcome (everything ignored).
func Resolve(detected []string, opts Options) ([]Volume, []error) {
	var (
		vols     []Volume
		warnings []error
		seen     = make(map[string]bool)
	)

	add := func(v Volume) {
		if seen[v.ID] {
			return
		}
		seen[v.ID] = true
		vols = append(vols, v)
	}

	for _, loc := range opts.Custom {
		root, err := normalizeCustom(loc)
		if err != nil {
			warnings = append(warnings, dferrors.LocationError(loc, err))
			continue
		}
		add(Volume{ID: root, Root: root, Kind: KindCustom})
	}

	ignored := normalizeSet(opts.Ignored)
	whitelist := normalizeSet(opts.Whitelist)

	for _, d := range detected {
		root := NormalizeRoot(d)
		if ignored[root] {
			continue
		}
		if len(whitelist) > 0 && !whitelist[root] {
			continue
		}
		add(Volume{ID: root, Root: root, Kind: KindDetected})
	}

	return vols, warnings
}

// NormalizeRoot cleans a volume root so config values and detected mount
// points compare equal. Bare windows drive letters gain their separator.
func NormalizeRoot(p string) string {
	p = strings.TrimSpace(p)
	if len(p) == 2 && p[1] == ':' {
		// "C:" means the drive root, not the drive-relative directory.
		p += string(filepath.Separator)
	}
	return filepath.Clean(p)
}

// normalizeCustom resolves a custom location to an absolute cleaned root and
// verifies it is a reachable directory.
func normalizeCustom(loc string) (string, error) {
	abs, err := filepath.Abs(strings.TrimSpace(loc))
	if err != nil {
		return "", err
	}
	abs = NormalizeRoot(abs)

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", &os.PathError{Op: "stat", Path: abs, Err: os.ErrInvalid}
	}
	return abs, nil
}

func normalizeSet(list []string) map[string]bool {
	if len(list) == 0 {
		return nil
	}
	set := make(map[string]bool, len(list))
	for _, p := range list {
		set[NormalizeRoot(p)] = true
	}
	return set
}
