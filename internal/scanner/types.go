// Package scanner walks a volume and streams the filesystem entries it
// finds. It prunes excluded directories, skips symbolic links by default,
// and reports unreadable paths as records on the result channel instead of
// aborting the walk.
package scanner

import (
	"time"
)

// Entry is one filesystem object discovered during a volume walk.
type Entry struct {
	// Path is the absolute, cleaned path of the entry.
	Path string
	// Name is the final path segment.
	Name string
	// Size in bytes. Always 0 for directories.
	Size int64
	// ModTime is the last modification time.
	ModTime time.Time
	// IsDir marks directories.
	IsDir bool
}

// Options configures a volume walk.
type Options struct {
	// Root is the volume root the walk starts from.
	Root string

	// ExcludeNames are directory names pruned from the walk. Entries may
	// be plain names or glob patterns ("$RECYCLE.BIN", ".Trash-*").
	ExcludeNames []string

	// ExcludePaths are absolute paths pruned from the walk, such as
	// pseudo-filesystem mount points and the roots of other volumes.
	ExcludePaths []string

	// IncludeSymlinks records symbolic links as entries. Links are never
	// descended into either way, so cycles cannot occur.
	IncludeSymlinks bool
}

// ScanResult is one item streamed from the scanner channel: either an
// entry or a contained per-path traversal error, never both.
type ScanResult struct {
	Entry *Entry
	Err   error
}
