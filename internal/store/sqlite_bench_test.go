package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// Performance Benchmarks - Index Store
// =============================================================================
// Targets:
// - Exact name lookup: < 1ms on 100k entries (hash index)
// - Wildcard query: full scan, bounded by entry count
// - ReplaceVolume: > 50k entries/sec
// =============================================================================

// setupBenchmarkStore creates an on-disk store seeded with n entries.
func setupBenchmarkStore(b *testing.B, n int) *SQLiteStore {
	b.Helper()
	dbPath := filepath.Join(b.TempDir(), "index.db")

	store, err := Open(dbPath)
	if err != nil {
		b.Fatalf("open store: %v", err)
	}
	b.Cleanup(func() { _ = store.Close() })

	entries := benchEntries(n)
	stat := &VolumeStat{Volume: "/bench", Files: int64(n), IndexedAt: time.Now()}
	if err := store.ReplaceVolume(context.Background(), "/bench", entries, nil, stat); err != nil {
		b.Fatalf("seed store: %v", err)
	}

	return store
}

func benchEntries(n int) []*Entry {
	mod := time.Now()
	entries := make([]*Entry, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("file-%06d.dat", i)
		entries[i] = &Entry{
			Path:    "/bench/dir" + fmt.Sprintf("%03d", i%100) + "/" + name,
			Name:    name,
			Size:    int64(i),
			ModTime: mod,
		}
	}
	return entries
}

func BenchmarkSQLiteStore_ReplaceVolume(b *testing.B) {
	sizes := []int{1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("entries_%d", size), func(b *testing.B) {
			dbPath := filepath.Join(b.TempDir(), "index.db")
			store, err := Open(dbPath)
			if err != nil {
				b.Fatalf("open store: %v", err)
			}
			defer store.Close()

			ctx := context.Background()
			entries := benchEntries(size)
			stat := &VolumeStat{Volume: "/bench", Files: int64(size), IndexedAt: time.Now()}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if err := store.ReplaceVolume(ctx, "/bench", entries, nil, stat); err != nil {
					b.Fatalf("replace volume: %v", err)
				}
			}
		})
	}
}

func BenchmarkSQLiteStore_Query_ExactName(b *testing.B) {
	store := setupBenchmarkStore(b, 100000)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		q := &Query{Term: fmt.Sprintf("file-%06d.dat", i%100000), Exact: true, CaseSensitive: true}
		entries, err := store.Query(ctx, q)
		if err != nil {
			b.Fatalf("query: %v", err)
		}
		if len(entries) != 1 {
			b.Fatalf("expected 1 entry, got %d", len(entries))
		}
	}
}

func BenchmarkSQLiteStore_Query_WildcardName(b *testing.B) {
	store := setupBenchmarkStore(b, 100000)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		q := &Query{Like: "%-0999%"}
		if _, err := store.Query(ctx, q); err != nil {
			b.Fatalf("query: %v", err)
		}
	}
}

func BenchmarkSQLiteStore_TopBySize_Files(b *testing.B) {
	store := setupBenchmarkStore(b, 100000)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := store.TopBySize(ctx, TopFiles, 10, false); err != nil {
			b.Fatalf("top: %v", err)
		}
	}
}
