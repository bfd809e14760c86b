package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dfind/dfind/internal/config"
	dferrors "github.com/dfind/dfind/internal/errors"
	"github.com/dfind/dfind/internal/index"
	"github.com/dfind/dfind/internal/logging"
	"github.com/dfind/dfind/internal/output"
	"github.com/dfind/dfind/internal/store"
	"github.com/dfind/dfind/internal/ui"
)

type indexOptions struct {
	mode      string
	workers   int
	locations []string
	force     bool
	plain     bool
	noColor   bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the file index for all volumes",
		Long: `Walk every resolved volume and rebuild its index generation.

Volumes are enumerated from the platform (drive letters on Windows,
mounted filesystems elsewhere), filtered through the ignored and
whitelist settings, and joined by any custom locations from the config
or the --location flag.

Each volume is walked independently and committed as a whole: the new
generation replaces the old one in a single transaction, so a failed or
interrupted walk leaves the previous index intact. Volumes are processed
in parallel by default; use --mode sequential for spinning disks.

A run only replaces the volumes it resolves. Use --force to drop the
store first, so volumes that no longer exist leave the index too.`,
		Example: `  # Index all detected volumes
  dfind index

  # Add a network mount for this run only
  dfind index --location /mnt/nas

  # One volume at a time, two walkers per volume pool
  dfind index --mode sequential
  dfind index --workers 2

  # Rebuild from scratch, dropping volumes that no longer exist
  dfind index --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.mode, "mode", "", "Volume processing mode: parallel or sequential (default from config)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Maximum volumes indexed concurrently (default NumCPU)")
	cmd.Flags().StringArrayVar(&opts.locations, "location", nil, "Extra root to index this run (repeatable)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Remove the existing index and rebuild from scratch")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Plain text progress instead of the live bar")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts indexOptions) error {
	// Ctrl+C cancels the walks; committed volumes stay, the rest keep
	// their previous generation.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// File-only logging unless --debug already installed its handler, so
	// slog events stay out of the progress output. A run without a log
	// file is fine.
	if !debugMode {
		logCfg := logging.DefaultConfig()
		logCfg.WriteToStderr = false
		if logger, cleanup, err := logging.Setup(logCfg); err == nil {
			slog.SetDefault(logger)
			defer cleanup()
		}
	}

	switch opts.mode {
	case "", config.ModeParallel, config.ModeSequential:
	default:
		return dferrors.ConfigError(
			"mode must be 'parallel' or 'sequential', got "+opts.mode, nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Store.Dir, 0o755); err != nil {
		return dferrors.StoreError("failed to create data directory", err).
			WithDetail("dir", cfg.Store.Dir)
	}

	if opts.force {
		if err := clearStoreFiles(cfg); err != nil {
			return err
		}
		output.New(cmd.OutOrStdout()).Statusf("🧹", "Cleared the previous index, starting fresh")
		slog.Info("index_force_clear", slog.String("dir", cfg.Store.Dir))
	}

	st, err := store.Open(cfg.Store.Path())
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(opts.plain || cfg.UI.Plain),
		ui.WithNoColor(opts.noColor || cfg.UI.NoColor || ui.DetectNoColor()),
	))
	if err := renderer.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = renderer.Stop() }()

	runner, err := index.NewRunner(index.RunnerDependencies{
		Renderer: renderer,
		Config:   cfg,
		Store:    st,
	})
	if err != nil {
		return err
	}

	_, err = runner.Run(ctx, index.RunnerConfig{
		Mode:      opts.mode,
		Workers:   opts.workers,
		Locations: opts.locations,
	})
	return err
}

// clearStoreFiles removes the store and its WAL sidecars so the next run
// starts from an empty schema. The lock file stays; the runner still takes
// it before writing.
func clearStoreFiles(cfg *config.Config) error {
	base := cfg.Store.Path()
	for _, path := range []string{base, base + "-wal", base + "-shm"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return dferrors.StoreError("failed to remove "+filepath.Base(path), err)
		}
	}
	return nil
}
