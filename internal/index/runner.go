// Package index orchestrates index runs: resolve the volumes to cover, walk
// each one, and atomically replace its generation in the store.
//
// A run takes the single-writer file lock first. Searches never take the
// lock; they keep reading the previous generation until a volume's commit
// lands.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dfind/dfind/internal/config"
	dferrors "github.com/dfind/dfind/internal/errors"
	"github.com/dfind/dfind/internal/scanner"
	"github.com/dfind/dfind/internal/store"
	"github.com/dfind/dfind/internal/ui"
	"github.com/dfind/dfind/internal/volume"
)

// progressInterval is how many entries pass between progress events.
// Walks stream tens of thousands of entries per second; reporting each
// one would drown the renderer.
const progressInterval = 1000

// RunnerConfig configures one index run.
type RunnerConfig struct {
	// Mode selects parallel or sequential volume processing.
	// Empty falls back to the loaded configuration.
	Mode string

	// Workers bounds the parallel worker pool. Zero falls back to the
	// loaded configuration, which defaults to NumCPU.
	Workers int

	// Locations are extra roots indexed in this run only, in addition
	// to the configured custom locations.
	Locations []string
}

// VolumeSummary is the outcome of indexing a single volume.
type VolumeSummary struct {
	// Volume is the volume ID in the store.
	Volume string

	// Files is the number of file entries indexed.
	Files int

	// Dirs is the number of directory entries indexed.
	Dirs int

	// TotalSize is the sum of file sizes in bytes.
	TotalSize int64

	// Skipped counts unreadable paths reported during the walk.
	Skipped int

	// Elapsed is the walk plus commit time for this volume.
	Elapsed time.Duration

	// Err is set when the volume failed to commit. Per-path traversal
	// problems never set it.
	Err error
}

// Summary is the outcome of an index run.
type Summary struct {
	// Volumes holds per-volume outcomes in resolution order.
	Volumes []VolumeSummary

	// Files, Dirs and TotalSize aggregate the successful volumes.
	Files     int
	Dirs      int
	TotalSize int64

	// Skipped counts unreadable paths across all volumes.
	Skipped int

	// Warnings counts non-fatal problems (unreachable locations,
	// unreadable paths).
	Warnings int

	// Duration is the total run time.
	Duration time.Duration
}

// RunnerDependencies contains the injected dependencies for Runner.
type RunnerDependencies struct {
	// Renderer for progress display (required).
	Renderer ui.Renderer

	// Config is the loaded configuration (required).
	Config *config.Config

	// Store receives the indexed generations (required).
	Store store.IndexStore

	// Detect enumerates volume roots. Defaults to the platform detector.
	Detect func() ([]string, error)

	// SkipPaths lists mount points walks must never enter.
	// Defaults to the platform skip list.
	SkipPaths func() []string
}

// Runner executes index runs with progress reporting.
// It accepts injected dependencies for testability and reusability.
type Runner struct {
	renderer  ui.Renderer
	config    *config.Config
	store     store.IndexStore
	detect    func() ([]string, error)
	skipPaths func() []string
}

// NewRunner creates a Runner with injected dependencies.
func NewRunner(deps RunnerDependencies) (*Runner, error) {
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("index store is required")
	}

	detect := deps.Detect
	if detect == nil {
		detect = volume.Detect
	}
	skipPaths := deps.SkipPaths
	if skipPaths == nil {
		skipPaths = volume.SystemSkipPaths
	}

	return &Runner{
		renderer:  deps.Renderer,
		config:    deps.Config,
		store:     deps.Store,
		detect:    detect,
		skipPaths: skipPaths,
	}, nil
}

// Run executes a full index run and returns its summary. Unreadable paths
// and unreachable locations are warnings; a held writer lock, a store
// failure, or cancellation fails the run. On failure the store keeps the
// previous generation of every uncommitted volume.
func (r *Runner) Run(ctx context.Context, cfg RunnerConfig) (*Summary, error) {
	start := time.Now()

	lock := NewFileLock(r.config.Store.LockPath())
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, dferrors.New(dferrors.ErrCodeStoreLocked, "failed to acquire index lock", err)
	}
	if !acquired {
		return nil, dferrors.New(dferrors.ErrCodeStoreLocked,
			fmt.Sprintf("another index run holds the lock at %s", lock.Path()), nil).
			WithSuggestion("wait for the running index to finish, or remove a stale lock with 'dfind clean'")
	}
	defer func() { _ = lock.Unlock() }()

	vols, warnings, err := r.resolveVolumes(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		r.renderer.AddError(ui.ErrorEvent{Err: w, IsWarn: true})
	}

	summary := &Summary{Warnings: len(warnings)}
	if len(vols) == 0 {
		slog.Info("index_no_volumes", slog.Int("warnings", summary.Warnings))
		summary.Duration = time.Since(start)
		r.renderer.Complete(ui.CompletionStats{
			Warnings: summary.Warnings,
			Duration: summary.Duration,
		})
		return summary, nil
	}

	workers := r.workerCount(cfg, len(vols))
	slog.Info("index_started",
		slog.Int("volumes", len(vols)),
		slog.Int("workers", workers))

	sysSkips := r.skipPaths()

	results := make([]VolumeSummary, len(vols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, vol := range vols {
		i, vol := i, vol // Capture loop variables
		g.Go(func() error {
			vs := r.indexVolume(gctx, vol, walkExcludes(vols, vol, sysSkips))
			results[i] = vs
			return vs.Err
		})
	}

	runErr := g.Wait()

	summary.Volumes = results
	for _, vs := range results {
		if vs.Err != nil {
			continue
		}
		summary.Files += vs.Files
		summary.Dirs += vs.Dirs
		summary.TotalSize += vs.TotalSize
		summary.Skipped += vs.Skipped
		summary.Warnings += vs.Skipped
	}
	summary.Duration = time.Since(start)

	if runErr != nil {
		slog.Error("index_failed",
			slog.String("error", runErr.Error()),
			slog.Int64("duration_ms", summary.Duration.Milliseconds()))
		return summary, runErr
	}

	timings := make([]ui.VolumeTiming, len(results))
	for i, vs := range results {
		timings[i] = ui.VolumeTiming{
			Volume:  vs.Volume,
			Files:   vs.Files,
			Dirs:    vs.Dirs,
			Elapsed: vs.Elapsed,
		}
	}
	r.renderer.Complete(ui.CompletionStats{
		Volumes:   len(vols),
		Files:     summary.Files,
		Dirs:      summary.Dirs,
		TotalSize: summary.TotalSize,
		Skipped:   summary.Skipped,
		Duration:  summary.Duration,
		Warnings:  summary.Warnings,
		Timings:   timings,
	})

	slog.Info("index_complete",
		slog.Int("volumes", len(vols)),
		slog.Int("files", summary.Files),
		slog.Int("dirs", summary.Dirs),
		slog.Int64("total_size", summary.TotalSize),
		slog.Int("skipped", summary.Skipped),
		slog.Int64("duration_ms", summary.Duration.Milliseconds()))

	return summary, nil
}

// resolveVolumes computes the volume set for this run: configured customs
// plus run-only locations first, then detected volumes filtered by the
// ignore and whitelist settings.
func (r *Runner) resolveVolumes(cfg RunnerConfig) ([]volume.Volume, []error, error) {
	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageEnumerating,
		Message: "Enumerating volumes...",
	})

	detected, err := r.detect()
	if err != nil {
		return nil, nil, dferrors.New(dferrors.ErrCodeNoVolumes, "failed to enumerate volumes", err)
	}

	custom := make([]string, 0, len(r.config.Volumes.Custom)+len(cfg.Locations))
	custom = append(custom, r.config.Volumes.Custom...)
	custom = append(custom, cfg.Locations...)

	vols, warnings := volume.Resolve(detected, volume.Options{
		Ignored:   r.config.Volumes.Ignored,
		Whitelist: r.config.Volumes.Whitelist,
		Custom:    custom,
	})

	slog.Info("volumes_resolved",
		slog.Int("detected", len(detected)),
		slog.Int("resolved", len(vols)),
		slog.Int("warnings", len(warnings)))

	return vols, warnings, nil
}

// workerCount bounds the pool: one for sequential mode, otherwise the
// smallest of the volume count, the configured limit, and NumCPU.
func (r *Runner) workerCount(cfg RunnerConfig, volumes int) int {
	mode := cfg.Mode
	if mode == "" {
		mode = r.config.Index.Mode
	}
	if mode == config.ModeSequential {
		return 1
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = r.config.Index.Workers
	}
	if workers <= 0 || workers > runtime.NumCPU() {
		workers = runtime.NumCPU()
	}
	if workers > volumes {
		workers = volumes
	}
	return workers
}

// indexVolume walks one volume, accumulates its entries and folder
// aggregates, and commits them as a single generation swap.
func (r *Runner) indexVolume(ctx context.Context, vol volume.Volume, excludePaths []string) VolumeSummary {
	start := time.Now()
	vs := VolumeSummary{Volume: vol.ID}

	slog.Info("volume_walk_started", slog.String("volume", vol.ID))
	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:  ui.StageWalking,
		Volume: vol.ID,
	})

	s, err := scanner.New()
	if err != nil {
		vs.Err = dferrors.InternalError("failed to create scanner", err)
		return vs
	}

	results, err := s.Scan(ctx, scanner.Options{
		Root:            vol.Root,
		ExcludeNames:    r.config.Index.ExcludeDirs,
		ExcludePaths:    excludePaths,
		IncludeSymlinks: r.config.Index.IncludeSymlinks,
	})
	if err != nil {
		// The whole root is unreachable. Keep the previous generation
		// and report the volume as skipped instead of failing the run.
		r.renderer.AddError(ui.ErrorEvent{Path: vol.Root, Err: err, IsWarn: true})
		slog.Warn("volume_unreachable",
			slog.String("volume", vol.ID),
			slog.String("error", err.Error()))
		vs.Skipped++
		vs.Elapsed = time.Since(start)
		return vs
	}

	var entries []*store.Entry
	folders := make(map[string]*store.FolderStat)

	for res := range results {
		if res.Err != nil {
			r.renderer.AddError(ui.ErrorEvent{Err: res.Err, IsWarn: true})
			vs.Skipped++
			continue
		}

		e := res.Entry
		entries = append(entries, &store.Entry{
			Volume:  vol.ID,
			Path:    e.Path,
			Name:    e.Name,
			Size:    e.Size,
			ModTime: e.ModTime,
			IsDir:   e.IsDir,
		})

		if e.IsDir {
			vs.Dirs++
		} else {
			vs.Files++
			vs.TotalSize += e.Size

			dir := filepath.Dir(e.Path)
			f := folders[dir]
			if f == nil {
				f = &store.FolderStat{Volume: vol.ID, Path: dir, Name: folderName(dir)}
				folders[dir] = f
			}
			f.Size += e.Size
			f.Files++
		}

		if (vs.Files+vs.Dirs)%progressInterval == 0 {
			r.renderer.UpdateProgress(ui.ProgressEvent{
				Stage:       ui.StageWalking,
				Volume:      vol.ID,
				Current:     vs.Files + vs.Dirs,
				CurrentPath: e.Path,
			})
		}
	}

	if err := ctx.Err(); err != nil {
		vs.Err = err
		return vs
	}

	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageCommitting,
		Volume:  vol.ID,
		Message: fmt.Sprintf("Committing %d entries...", len(entries)),
	})

	stat := &store.VolumeStat{
		Volume:    vol.ID,
		Files:     int64(vs.Files),
		Dirs:      int64(vs.Dirs),
		TotalSize: vs.TotalSize,
		Skipped:   int64(vs.Skipped),
		Elapsed:   time.Since(start),
		IndexedAt: time.Now(),
	}
	if err := r.store.ReplaceVolume(ctx, vol.ID, entries, sortedFolders(folders), stat); err != nil {
		vs.Err = err
		return vs
	}

	vs.Elapsed = time.Since(start)
	slog.Info("volume_indexed",
		slog.String("volume", vol.ID),
		slog.Int("files", vs.Files),
		slog.Int("dirs", vs.Dirs),
		slog.Int64("total_size", vs.TotalSize),
		slog.Int("skipped", vs.Skipped),
		slog.Int64("elapsed_ms", vs.Elapsed.Milliseconds()))

	return vs
}

// walkExcludes builds the path prune list for one volume: system mount
// points plus the roots of every other volume in this run, so nested
// volumes are indexed exactly once.
func walkExcludes(vols []volume.Volume, self volume.Volume, sysSkips []string) []string {
	excludes := make([]string, 0, len(sysSkips)+len(vols))
	excludes = append(excludes, sysSkips...)
	for _, v := range vols {
		if v.ID != self.ID {
			excludes = append(excludes, v.Root)
		}
	}
	return excludes
}

// folderName is the final path segment, or the path itself for roots
// whose base is just the separator.
func folderName(dir string) string {
	name := filepath.Base(dir)
	if name == string(filepath.Separator) {
		return dir
	}
	return name
}

// sortedFolders flattens the aggregation map ordered by path, keeping
// commit contents deterministic.
func sortedFolders(m map[string]*store.FolderStat) []*store.FolderStat {
	out := make([]*store.FolderStat, 0, len(m))
	for _, f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
