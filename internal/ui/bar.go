package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// BarRenderer renders live progress with a spinner or bar on interactive
// terminals. Tree walks have no known total, so it runs in spinner mode
// and switches to a bounded bar when a total is reported.
type BarRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles

	bar    *progressbar.ProgressBar
	stage  Stage
	volume string

	errors   int
	warnings int
}

// NewBarRenderer creates a progress-bar renderer.
func NewBarRenderer(cfg Config) *BarRenderer {
	return &BarRenderer{
		out:    cfg.Output,
		styles: GetStyles(cfg.NoColor || DetectNoColor()),
	}
}

// Start implements Renderer.
func (r *BarRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
func (r *BarRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage == StageComplete {
		r.finishLocked()
		return
	}

	// A new stage or volume gets its own bar line.
	if r.bar == nil || event.Stage != r.stage || event.Volume != r.volume {
		r.finishLocked()
		r.stage = event.Stage
		r.volume = event.Volume
		r.bar = r.newBar(event)
	}

	if event.Total > 0 {
		r.bar.ChangeMax64(int64(event.Total))
	}
	_ = r.bar.Set64(int64(event.Current))
}

// AddError implements Renderer.
func (r *BarRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	label := r.styles.Error.Render("ERROR")
	if event.IsWarn {
		label = r.styles.Warning.Render("WARN")
		r.warnings++
	} else {
		r.errors++
	}

	// Clear the bar line so the message stays visible above it.
	if r.bar != nil {
		_ = r.bar.Clear()
	}
	if event.Path != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", label, event.Path, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", label, event.Err)
	}
	if r.bar != nil {
		_ = r.bar.RenderBlank()
	}
}

// Complete implements Renderer.
func (r *BarRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.finishLocked()

	header := r.styles.Success.Render("✓ Complete")
	_, _ = fmt.Fprintf(r.out, "%s: %s files, %s dirs across %d volumes in %s\n",
		header,
		humanize.Comma(int64(stats.Files)),
		humanize.Comma(int64(stats.Dirs)),
		stats.Volumes,
		stats.Duration.Round(100*millisecond))

	if stats.TotalSize > 0 {
		_, _ = fmt.Fprintf(r.out, "  %s %s\n",
			r.styles.Label.Render("Size:"), humanize.IBytes(uint64(stats.TotalSize)))
	}
	if stats.Skipped > 0 {
		_, _ = fmt.Fprintf(r.out, "  %s %d unreadable entries\n",
			r.styles.Label.Render("Skipped:"), stats.Skipped)
	}
	if stats.Errors > 0 || stats.Warnings > 0 {
		_, _ = fmt.Fprintf(r.out, "  %s %d errors, %d warnings\n",
			r.styles.Warning.Render("Issues:"), stats.Errors, stats.Warnings)
	}

	for _, t := range stats.Timings {
		_, _ = fmt.Fprintf(r.out, "  %s %s files in %s\n",
			r.styles.Dim.Render(t.Volume+":"),
			humanize.Comma(int64(t.Files)),
			t.Elapsed.Round(100*millisecond))
	}
}

// Stop implements Renderer.
func (r *BarRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.finishLocked()
	return nil
}

func (r *BarRenderer) newBar(event ProgressEvent) *progressbar.ProgressBar {
	max := int64(event.Total)
	if max <= 0 {
		max = -1 // spinner mode
	}

	desc := r.styles.Stage.Render(event.Stage.String())
	if event.Volume != "" {
		desc += " " + r.styles.Active.Render(event.Volume)
	}

	return progressbar.NewOptions64(max,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("entries"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
}

// finishLocked tears down the active bar. Caller must hold mu.
func (r *BarRenderer) finishLocked() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	_ = r.bar.Clear()
	r.bar = nil
}
