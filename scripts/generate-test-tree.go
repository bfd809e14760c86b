//go:build ignore

// Package main generates a synthetic directory tree for indexing tests.
// Usage: go run scripts/generate-test-tree.go -files 10000 -output testdata/tree
//
// The tree mimics a real volume: nested project directories, a long tail
// of small files, a few large ones, and names that exercise substring,
// wildcard, and case-folding searches.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	numFiles  = flag.Int("files", 10000, "Number of files to generate")
	maxDepth  = flag.Int("depth", 6, "Maximum directory depth")
	fanout    = flag.Int("fanout", 8, "Maximum subdirectories per directory")
	outputDir = flag.String("output", "testdata/tree", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var dirNames = []string{
	"projects", "docs", "archive", "media", "backup", "src", "build",
	"reports", "invoices", "photos", "downloads", "config", "data",
	"node_modules", "vendor", "tmp",
}

var fileStems = []string{
	"report", "Report", "REPORT", "notes", "summary", "budget", "invoice",
	"readme", "main", "index", "backup", "draft", "final", "old", "new",
	"photo", "screenshot", "meeting", "plan", "todo",
}

var fileExts = []string{
	".txt", ".md", ".pdf", ".PDF", ".docx", ".xlsx", ".csv", ".json",
	".go", ".py", ".jpg", ".png", ".zip", ".log", ".bak", "",
}

// sizeFor returns a file size with a long tail: mostly small files,
// occasionally a large one so 'dfind top' has something to rank.
func sizeFor(rng *rand.Rand) int {
	switch rng.Intn(100) {
	case 0:
		return 10 << 20 // 10 MiB
	case 1, 2:
		return 1 << 20 // 1 MiB
	default:
		return rng.Intn(64 << 10) // up to 64 KiB
	}
}

func main() {
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", *outputDir, err)
		os.Exit(1)
	}

	// Build the directory skeleton first, then scatter files across it.
	dirs := []string{*outputDir}
	for depth := 1; depth <= *maxDepth; depth++ {
		var next []string
		for _, parent := range dirs {
			n := 1 + rng.Intn(*fanout)
			for i := 0; i < n; i++ {
				name := dirNames[rng.Intn(len(dirNames))]
				dir := filepath.Join(parent, fmt.Sprintf("%s-%d", name, i))
				if err := os.MkdirAll(dir, 0o755); err != nil {
					fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", dir, err)
					os.Exit(1)
				}
				next = append(next, dir)
			}
		}
		dirs = append(dirs, next...)
		if len(dirs) > *numFiles/4 {
			break
		}
	}

	var total int64
	buf := make([]byte, 64<<10)
	for i := 0; i < *numFiles; i++ {
		dir := dirs[rng.Intn(len(dirs))]
		name := fmt.Sprintf("%s-%04d%s",
			fileStems[rng.Intn(len(fileStems))], i, fileExts[rng.Intn(len(fileExts))])

		size := sizeFor(rng)
		total += int64(size)

		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "create %s: %v\n", name, err)
			os.Exit(1)
		}
		for remaining := size; remaining > 0; {
			n := remaining
			if n > len(buf) {
				n = len(buf)
			}
			if _, err := f.Write(buf[:n]); err != nil {
				fmt.Fprintf(os.Stderr, "write %s: %v\n", name, err)
				os.Exit(1)
			}
			remaining -= n
		}
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close %s: %v\n", name, err)
			os.Exit(1)
		}

		if (i+1)%1000 == 0 {
			fmt.Printf("  %d/%d files...\n", i+1, *numFiles)
		}
	}

	fmt.Printf("Generated %d files in %d directories under %s (%.1f MiB)\n",
		*numFiles, len(dirs), *outputDir, float64(total)/(1<<20))
	fmt.Printf("Index it with: dfind index --location %s\n", *outputDir)
}
