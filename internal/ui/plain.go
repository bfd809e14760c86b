package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
)

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	noColor bool
	stage   Stage
	errors  []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{
		out:     cfg.Output,
		noColor: cfg.NoColor,
	}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stage = event.Stage

	// Format: [STAGE] current/total - message or path
	var msg string
	if event.Message != "" {
		msg = event.Message
	} else if event.CurrentPath != "" {
		msg = event.CurrentPath
	}
	if event.Volume != "" {
		if msg != "" {
			msg = event.Volume + ": " + msg
		} else {
			msg = event.Volume
		}
	}

	if event.Total > 0 {
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d - %s\n", event.Stage.Icon(), event.Current, event.Total, msg)
	} else if msg != "" {
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), msg)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}

	if event.Path != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.Path, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d files, %d dirs across %d volumes in %s",
		stats.Files, stats.Dirs, stats.Volumes, stats.Duration.Round(100*millisecond))

	if stats.TotalSize > 0 {
		_, _ = fmt.Fprintf(r.out, " (%s)", humanize.IBytes(uint64(stats.TotalSize)))
	}

	if stats.Errors > 0 || stats.Warnings > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d errors, %d warnings)", stats.Errors, stats.Warnings)
	}

	_, _ = fmt.Fprintln(r.out)

	if stats.Skipped > 0 {
		_, _ = fmt.Fprintf(r.out, "Skipped %d unreadable entries\n", stats.Skipped)
	}

	// Show per-volume breakdown if available
	if len(stats.Timings) > 0 {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintln(r.out, "Volume Breakdown:")
		for _, t := range stats.Timings {
			_, _ = fmt.Fprintf(r.out, "  %s: %d files, %d dirs in %s\n",
				t.Volume, t.Files, t.Dirs, t.Elapsed.Round(100*millisecond))
		}
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

const millisecond = 1000000 // nanoseconds
