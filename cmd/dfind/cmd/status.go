package cmd

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dfind/dfind/internal/output"
	"github.com/dfind/dfind/internal/store"
)

// staleAfter is the index age past which status suggests a refresh.
const staleAfter = 7 * 24 * time.Hour

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index size, freshness, and per-volume stats",
		Long: `Display the state of the persistent index:

  - Store location, on-disk size, and schema version
  - Total indexed files, directories, and bytes
  - When each volume was last indexed and how long the walk took

The index is a snapshot; status tells you how old it is.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openIndexStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}

	volumes, err := st.VolumeStats(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return formatStatusJSON(cmd, cfg.Store.Path(), stats, volumes)
	}

	formatStatusText(cmd, cfg.Store.Path(), stats, volumes)
	return nil
}

func formatStatusText(cmd *cobra.Command, path string, stats *store.Stats, volumes []*store.VolumeStat) {
	out := output.New(cmd.OutOrStdout())

	out.Statusf("📦", "Index: %s", path)
	out.Plainf("  On disk:  %s (schema v%d)", output.Size(stats.SizeBytes), stats.SchemaVersion)
	out.Plainf("  Files:    %s", output.Count(stats.Files))
	out.Plainf("  Dirs:     %s", output.Count(stats.Dirs))
	out.Plainf("  Total:    %s across %s volumes", output.Size(stats.TotalSize), output.Count(stats.Volumes))

	if stats.Volumes == 0 {
		out.Newline()
		out.Warning("Index is empty")
		out.Status("💡", "Run 'dfind index' to build it")
		return
	}

	out.Plainf("  Updated:  %s", humanize.Time(stats.UpdatedAt))
	out.Newline()

	out.Status("💾", "Volumes:")
	for _, v := range volumes {
		out.Plainf("  %-20s %12s files %10s dirs %10s  indexed %s",
			v.Volume,
			output.Count(v.Files),
			output.Count(v.Dirs),
			output.Size(v.TotalSize),
			humanize.Time(v.IndexedAt))
		if v.Skipped > 0 {
			out.Plainf("  %-20s %s unreadable paths skipped", "", output.Count(v.Skipped))
		}
	}

	if age := time.Since(stats.UpdatedAt); age > staleAfter {
		out.Newline()
		out.Warningf("Index is %s old", humanize.RelTime(stats.UpdatedAt, time.Now(), "", ""))
		out.Status("💡", "Run 'dfind index' to refresh it")
	}
}

type statusJSONVolume struct {
	Volume    string    `json:"volume"`
	Files     int64     `json:"files"`
	Dirs      int64     `json:"dirs"`
	TotalSize int64     `json:"total_size"`
	Skipped   int64     `json:"skipped"`
	ElapsedMS float64   `json:"elapsed_ms"`
	IndexedAt time.Time `json:"indexed_at"`
}

type statusJSONResult struct {
	Path          string             `json:"path"`
	SizeBytes     int64              `json:"size_bytes"`
	SchemaVersion int                `json:"schema_version"`
	Volumes       int64              `json:"volumes"`
	Files         int64              `json:"files"`
	Dirs          int64              `json:"dirs"`
	TotalSize     int64              `json:"total_size"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	VolumeStats   []statusJSONVolume `json:"volume_stats"`
}

func formatStatusJSON(cmd *cobra.Command, path string, stats *store.Stats, volumes []*store.VolumeStat) error {
	payload := statusJSONResult{
		Path:          path,
		SizeBytes:     stats.SizeBytes,
		SchemaVersion: stats.SchemaVersion,
		Volumes:       stats.Volumes,
		Files:         stats.Files,
		Dirs:          stats.Dirs,
		TotalSize:     stats.TotalSize,
		CreatedAt:     stats.CreatedAt,
		UpdatedAt:     stats.UpdatedAt,
		VolumeStats:   make([]statusJSONVolume, 0, len(volumes)),
	}
	for _, v := range volumes {
		payload.VolumeStats = append(payload.VolumeStats, statusJSONVolume{
			Volume:    v.Volume,
			Files:     v.Files,
			Dirs:      v.Dirs,
			TotalSize: v.TotalSize,
			Skipped:   v.Skipped,
			ElapsedMS: float64(v.Elapsed.Microseconds()) / 1000.0,
			IndexedAt: v.IndexedAt,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
