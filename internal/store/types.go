// Package store persists the file-system index in SQLite.
// One store file holds every indexed volume; a volume's entries are
// replaced as a unit, so searches always observe a complete generation.
package store

import (
	"context"
	"time"
)

// Scope selects which entry fields a query matches against.
type Scope string

const (
	ScopeName Scope = "name"
	ScopePath Scope = "path"
	ScopeBoth Scope = "both"
)

// EntryType filters query results by entry kind.
type EntryType string

const (
	TypeAll  EntryType = "all"
	TypeFile EntryType = "file"
	TypeDir  EntryType = "dir"
)

// TopKind selects which table TopBySize ranks.
type TopKind string

const (
	TopFiles   TopKind = "files"
	TopFolders TopKind = "folders"
)

// Entry is one indexed file-system object.
type Entry struct {
	Volume   string    // owning volume id (cleaned root path)
	Path     string    // absolute path, platform separators
	PathHash string    // xxhash64 of Path, uppercase hex; set on write
	Name     string    // final path segment
	NameHash string    // xxhash64 of Name, uppercase hex; set on write
	Size     int64     // bytes; always 0 for directories
	ModTime  time.Time // last modification time, second precision
	IsDir    bool
}

// FolderStat aggregates the direct child files of one directory.
// Nested files count toward their own parent, not the ancestors.
type FolderStat struct {
	Volume string
	Path   string
	Name   string // final path segment, or the path itself for roots
	Size   int64  // sum of direct child file sizes
	Files  int64  // count of direct child files
}

// VolumeStat is one volume's generation record.
type VolumeStat struct {
	Volume    string
	Files     int64
	Dirs      int64
	TotalSize int64
	Skipped   int64 // paths dropped by traversal errors
	Elapsed   time.Duration
	IndexedAt time.Time
}

// Stats summarizes the whole store for status reporting.
type Stats struct {
	Volumes       int64
	Files         int64
	Dirs          int64
	Folders       int64
	TotalSize     int64
	SizeBytes     int64 // store file size on disk; 0 for in-memory stores
	SchemaVersion int
	CreatedAt     time.Time
	UpdatedAt     time.Time // most recent volume generation
}

// TopEntry is one row of a TopBySize report.
type TopEntry struct {
	Volume string
	Path   string
	Name   string
	Size   int64
}

// Query describes one search against the entries table.
//
// Exact queries compare Term verbatim; wildcard queries use the Like or
// Glob rendering depending on case sensitivity. The renderings are
// produced by the search package, which owns escaping rules. Zero
// values for Scope and Type mean ScopeName and TypeAll.
type Query struct {
	Term string // literal term for exact mode
	Like string // LIKE rendering for case-insensitive wildcard mode
	Glob string // GLOB rendering for case-sensitive wildcard mode

	Exact         bool
	CaseSensitive bool
	Scope         Scope
	Type          EntryType
	Limit         int // 0 = unlimited
}

// IndexStore persists volume generations and answers queries.
type IndexStore interface {
	// ReplaceVolume atomically swaps one volume's generation.
	ReplaceVolume(ctx context.Context, volume string, entries []*Entry, folders []*FolderStat, stat *VolumeStat) error

	// RemoveVolume drops one volume's generation.
	RemoveVolume(ctx context.Context, volume string) error

	// Query returns entries matching q, ordered by (volume, path).
	Query(ctx context.Context, q *Query) ([]*Entry, error)

	// TopBySize ranks files or folders by size.
	TopBySize(ctx context.Context, kind TopKind, limit int, ascending bool) ([]*TopEntry, error)

	// Stats returns store-wide totals.
	Stats(ctx context.Context) (*Stats, error)

	// VolumeStats returns per-volume generation stats ordered by volume.
	VolumeStats(ctx context.Context) ([]*VolumeStat, error)

	// Lifecycle
	Close() error
}

// CurrentSchemaVersion is the current store schema version.
// A store recorded with a different version must be rebuilt.
const CurrentSchemaVersion = 1
