package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dferrors "github.com/dfind/dfind/internal/errors"
)

// buildTree creates files under root; paths ending in / become directories.
func buildTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if p[len(p)-1] == '/' {
			require.NoError(t, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("content of "+p), 0o644))
	}
}

// collect drains the scan channel into entries and errors.
func collect(t *testing.T, results <-chan ScanResult) (map[string]*Entry, []error) {
	t.Helper()
	entries := make(map[string]*Entry)
	var errs []error
	for r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
			continue
		}
		require.NotNil(t, r.Entry)
		entries[r.Entry.Path] = r.Entry
	}
	return entries, errs
}

func scanAll(t *testing.T, opts Options) (map[string]*Entry, []error) {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	results, err := s.Scan(context.Background(), opts)
	require.NoError(t, err)
	return collect(t, results)
}

func TestScanner_New_ReturnsScanner(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestScanner_Scan_BasicTree(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root,
		"a.txt",
		"b.log",
		"sub/c.txt",
		"empty/",
	)

	entries, errs := scanAll(t, Options{Root: root})

	assert.Empty(t, errs)
	// 3 files + 2 directories; the root itself is not emitted.
	assert.Len(t, entries, 5)

	a := entries[filepath.Join(root, "a.txt")]
	require.NotNil(t, a)
	assert.Equal(t, "a.txt", a.Name)
	assert.False(t, a.IsDir)
	assert.Equal(t, int64(len("content of a.txt")), a.Size)
	assert.WithinDuration(t, time.Now(), a.ModTime, time.Minute)

	sub := entries[filepath.Join(root, "sub")]
	require.NotNil(t, sub)
	assert.True(t, sub.IsDir)
	assert.Zero(t, sub.Size, "directories carry size 0")

	empty := entries[filepath.Join(root, "empty")]
	require.NotNil(t, empty)
	assert.True(t, empty.IsDir)
}

func TestScanner_Scan_NameIsLastPathSegment(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, "docs/deep/nested/report.txt")

	entries, _ := scanAll(t, Options{Root: root})

	for path, e := range entries {
		assert.Equal(t, filepath.Base(path), e.Name, "entry %s", path)
	}
}

func TestScanner_Scan_ExcludesNamedDirs(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root,
		"keep/file.txt",
		"$RECYCLE.BIN/junk.txt",
		"System Volume Information/meta.db",
	)

	entries, errs := scanAll(t, Options{
		Root:         root,
		ExcludeNames: []string{"$RECYCLE.BIN", "System Volume Information"},
	})

	assert.Empty(t, errs)
	assert.Contains(t, entries, filepath.Join(root, "keep", "file.txt"))
	for path := range entries {
		assert.NotContains(t, path, "$RECYCLE.BIN")
		assert.NotContains(t, path, "System Volume Information")
	}
}

func TestScanner_Scan_ExcludesGlobPatterns(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root,
		".Trash-1000/files/deleted.txt",
		"trash-talk.txt",
	)

	entries, _ := scanAll(t, Options{Root: root, ExcludeNames: []string{".Trash-*"}})

	assert.Contains(t, entries, filepath.Join(root, "trash-talk.txt"))
	for path := range entries {
		assert.NotContains(t, path, ".Trash-1000")
	}
}

func TestScanner_Scan_ExcludesNestedOccurrences(t *testing.T) {
	// Excluded names are pruned anywhere in the tree, not only at the root.
	root := t.TempDir()
	buildTree(t, root,
		"project/node_modules/pkg/index.js",
		"project/src/main.go",
	)

	entries, _ := scanAll(t, Options{Root: root, ExcludeNames: []string{"node_modules"}})

	assert.Contains(t, entries, filepath.Join(root, "project", "src", "main.go"))
	for path := range entries {
		assert.NotContains(t, path, "node_modules")
	}
}

func TestScanner_Scan_ExcludePaths(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root,
		"data/file.txt",
		"mnt/other-volume/file.txt",
	)

	entries, errs := scanAll(t, Options{
		Root:         root,
		ExcludePaths: []string{filepath.Join(root, "mnt", "other-volume")},
	})

	assert.Empty(t, errs)
	assert.Contains(t, entries, filepath.Join(root, "data", "file.txt"))
	// The pruned directory and its content never appear.
	assert.NotContains(t, entries, filepath.Join(root, "mnt", "other-volume"))
	assert.NotContains(t, entries, filepath.Join(root, "mnt", "other-volume", "file.txt"))
	// Its parent still does.
	assert.Contains(t, entries, filepath.Join(root, "mnt"))
}

func TestScanner_Scan_SkipsSymlinksByDefault(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	root := t.TempDir()
	buildTree(t, root, "real.txt")
	link := filepath.Join(root, "link.txt")
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), link))

	entries, errs := scanAll(t, Options{Root: root})

	assert.Empty(t, errs)
	assert.Contains(t, entries, filepath.Join(root, "real.txt"))
	assert.NotContains(t, entries, link)
}

func TestScanner_Scan_IncludeSymlinksRecordsLink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	root := t.TempDir()
	buildTree(t, root, "real.txt", "realdir/inner.txt")
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")))
	require.NoError(t, os.Symlink(filepath.Join(root, "realdir"), filepath.Join(root, "linkdir")))

	entries, errs := scanAll(t, Options{Root: root, IncludeSymlinks: true})

	assert.Empty(t, errs)
	assert.Contains(t, entries, filepath.Join(root, "link.txt"))
	// Directory links are recorded but never descended into.
	assert.Contains(t, entries, filepath.Join(root, "linkdir"))
	assert.NotContains(t, entries, filepath.Join(root, "linkdir", "inner.txt"))
	assert.Contains(t, entries, filepath.Join(root, "realdir", "inner.txt"))
}

func TestScanner_Scan_UnreadableDirReportsTraversalError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits work differently on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores permission bits")
	}

	root := t.TempDir()
	buildTree(t, root, "ok.txt", "locked/secret.txt")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	entries, errs := scanAll(t, Options{Root: root})

	// The readable part of the tree is still indexed.
	assert.Contains(t, entries, filepath.Join(root, "ok.txt"))

	// The unreadable directory produced a contained traversal error.
	require.NotEmpty(t, errs)
	assert.True(t, dferrors.IsTraversalError(errs[0]))
	assert.False(t, dferrors.IsFatal(errs[0]))
}

func TestScanner_Scan_ContextCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 50; i++ {
		buildTree(t, root, fmt.Sprintf("dir%02d/file.txt", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s, err := New()
	require.NoError(t, err)
	results, err := s.Scan(ctx, Options{Root: root})
	require.NoError(t, err)

	// Read one result, then cancel.
	<-results
	cancel()

	// The channel must close; draining must not hang.
	done := make(chan struct{})
	go func() {
		for range results {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not stop after cancellation")
	}
}

func TestScanner_Scan_PreCancelledContext(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, "a.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New()
	require.NoError(t, err)
	results, err := s.Scan(ctx, Options{Root: root})
	require.NoError(t, err)

	entries, _ := collect(t, results)
	assert.Empty(t, entries)
}

func TestScanner_Scan_EmptyDirectory(t *testing.T) {
	entries, errs := scanAll(t, Options{Root: t.TempDir()})
	assert.Empty(t, entries)
	assert.Empty(t, errs)
}

func TestScanner_Scan_NonExistentRoot(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	_, err = s.Scan(context.Background(), Options{Root: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
}

func TestScanner_Scan_RootIsFile(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, "file.txt")

	s, err := New()
	require.NoError(t, err)

	_, err = s.Scan(context.Background(), Options{Root: filepath.Join(root, "file.txt")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestScanner_Scan_EmptyRootRejected(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	_, err = s.Scan(context.Background(), Options{})
	require.Error(t, err)
}

func TestScanner_ExcludeCache_Bounded(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	// Far more names than the cache holds; decisions stay correct.
	for i := 0; i < excludeCacheSize*2; i++ {
		name := fmt.Sprintf("dir%d", i)
		assert.False(t, s.shouldExcludeDir(name, []string{"node_modules"}))
	}
	assert.True(t, s.shouldExcludeDir("node_modules", []string{"node_modules"}))
	assert.LessOrEqual(t, s.excludeCache.Len(), excludeCacheSize)
}
