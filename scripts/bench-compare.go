//go:build ignore

// Package main compares two 'go test -bench' output files and flags
// regressions. Usage:
//
//	go test -bench=. -benchmem ./internal/store > current.txt
//	go run scripts/bench-compare.go current.txt baseline.txt
//
// A benchmark regresses when its ns/op grows beyond the threshold
// (default 20%). The exit code is 1 when any benchmark regressed, so CI
// can gate on it.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

var (
	threshold = flag.Float64("threshold", 0.20, "Regression threshold as a fraction (0.20 = 20%)")
	verbose   = flag.Bool("verbose", false, "Show unchanged benchmarks too")
)

// benchLine matches "BenchmarkName-8  1000  123456 ns/op  512 B/op  7 allocs/op".
var benchLine = regexp.MustCompile(`^(Benchmark\S+?)(?:-\d+)?\s+\d+\s+([\d.]+)\s+ns/op`)

func parseBenchFile(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	results := make(map[string]float64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m := benchLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		ns, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		results[m[1]] = ns
	}
	return results, scanner.Err()
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <current.txt> <baseline.txt>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	current, err := parseBenchFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", flag.Arg(0), err)
		os.Exit(2)
	}
	baseline, err := parseBenchFile(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", flag.Arg(1), err)
		os.Exit(2)
	}

	regressed := 0
	for name, cur := range current {
		base, ok := baseline[name]
		if !ok {
			fmt.Printf("NEW   %-50s %12.0f ns/op\n", name, cur)
			continue
		}

		delta := (cur - base) / base
		switch {
		case delta > *threshold:
			regressed++
			fmt.Printf("SLOW  %-50s %12.0f ns/op (was %.0f, %+.1f%%)\n", name, cur, base, delta*100)
		case delta < -*threshold:
			fmt.Printf("FAST  %-50s %12.0f ns/op (was %.0f, %+.1f%%)\n", name, cur, base, delta*100)
		default:
			if *verbose {
				fmt.Printf("OK    %-50s %12.0f ns/op (%+.1f%%)\n", name, cur, delta*100)
			}
		}
	}

	for name := range baseline {
		if _, ok := current[name]; !ok {
			fmt.Printf("GONE  %s\n", name)
		}
	}

	if regressed > 0 {
		fmt.Printf("\n%d benchmark(s) regressed beyond %.0f%%\n", regressed, *threshold*100)
		os.Exit(1)
	}
}
