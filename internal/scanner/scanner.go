package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	dferrors "github.com/dfind/dfind/internal/errors"
)

// excludeCacheSize bounds the directory-name decision cache. Volume walks
// revisit the same directory names constantly (node_modules, .git, ...), so
// the cache keeps glob matching off the hot path.
const excludeCacheSize = 1000

// resultBuffer is the capacity of the result channel. The walker is almost
// always faster than the consumer committing to the store.
const resultBuffer = 1024

// Scanner walks volume roots and streams entries. A single Scanner may run
// several walks concurrently; the decision cache assumes the exclusion
// pattern set stays the same for the Scanner's lifetime.
type Scanner struct {
	excludeCache *lru.Cache[string, bool]
}

// New creates a new Scanner instance.
func New() (*Scanner, error) {
	cache, err := lru.New[string, bool](excludeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create exclusion cache: %w", err)
	}
	return &Scanner{excludeCache: cache}, nil
}

// Scan walks the volume root and returns a channel streaming every entry
// found. The channel carries both entries and contained per-path traversal
// errors; it is closed when the walk completes or ctx is cancelled.
//
// The root directory itself is not emitted.
func (s *Scanner) Scan(ctx context.Context, opts Options) (<-chan ScanResult, error) {
	root := opts.Root
	if root == "" {
		return nil, fmt.Errorf("scan root must not be empty")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root is not a directory: %s", absRoot)
	}

	excludePaths := make(map[string]bool, len(opts.ExcludePaths))
	for _, p := range opts.ExcludePaths {
		excludePaths[filepath.Clean(p)] = true
	}

	results := make(chan ScanResult, resultBuffer)

	go func() {
		defer close(results)
		s.walk(ctx, absRoot, opts, excludePaths, results)
	}()

	return results, nil
}

// walk performs the actual directory traversal.
func (s *Scanner) walk(ctx context.Context, absRoot string, opts Options, excludePaths map[string]bool, results chan<- ScanResult) {
	emit := func(r ScanResult) error {
		select {
		case results <- r:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	_ = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			// Permission and I/O failures are contained: report and move on.
			if emitErr := emit(ScanResult{Err: dferrors.TraversalError(path, err)}); emitErr != nil {
				return emitErr
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip the volume root itself
		if path == absRoot {
			return nil
		}

		if d.IsDir() {
			if excludePaths[path] || s.shouldExcludeDir(d.Name(), opts.ExcludeNames) {
				return filepath.SkipDir
			}
		}

		// Symlinks are recorded only when configured, never descended into.
		if d.Type()&fs.ModeSymlink != 0 && !opts.IncludeSymlinks {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if emitErr := emit(ScanResult{Err: dferrors.TraversalError(path, err)}); emitErr != nil {
				return emitErr
			}
			return nil
		}

		entry := &Entry{
			Path:    path,
			Name:    d.Name(),
			ModTime: info.ModTime(),
			IsDir:   d.IsDir(),
		}
		if !entry.IsDir {
			entry.Size = info.Size()
		}

		return emit(ScanResult{Entry: entry})
	})
}

// shouldExcludeDir reports whether a directory name is pruned. Decisions
// are cached per name since the same names recur across the tree.
func (s *Scanner) shouldExcludeDir(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	if cached, ok := s.excludeCache.Get(name); ok {
		return cached
	}

	excluded := false
	for _, pattern := range patterns {
		if pattern == name {
			excluded = true
			break
		}
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			excluded = true
			break
		}
	}

	s.excludeCache.Add(name, excluded)
	return excluded
}
