// Package cmd provides the CLI commands for dfind.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dfind/dfind/internal/config"
	dferrors "github.com/dfind/dfind/internal/errors"
	"github.com/dfind/dfind/internal/logging"
	"github.com/dfind/dfind/internal/profiling"
	"github.com/dfind/dfind/pkg/version"
)

// Profiling flags
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
)

// Global flags
var (
	debugMode      bool
	dataDir        string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the dfind CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dfind [term]",
		Short: "Fast file search over a persistent local index",
		Long: `dfind indexes the file names on your volumes into a local database
and answers name searches from it instantly, without touching the disk.

Run 'dfind index' once to build the index, then search:

  dfind report          Substring search for "report"
  dfind "*.pdf"         Wildcard search
  dfind top files       Largest files in the index

A bare term is shorthand for 'dfind search <term>'. The index lives in
~/.dfind and is rebuilt, never updated in place, so results reflect the
volumes as of the last 'dfind index' run.`,
		Version:       version.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			// Bare 'dfind <term>' is shorthand for 'dfind search <term>'.
			term := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, term, searchOptions{})
		},
	}

	cmd.SetVersionTemplate("dfind version {{.Version}}\n")

	// Profiling flags
	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	// Global flags
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.dfind/logs/")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override the data directory (default ~/.dfind)")

	// Setup profiling and logging hooks
	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	// Add subcommands
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newTopCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig builds the effective configuration and applies global flag
// overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.Store.Dir = dataDir
	}
	return cfg, nil
}

// startProfilingAndLogging starts CPU/trace profiling and debug logging if flags are set.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()))
	}

	if profileCPU != "" {
		if err := profiler.StartCPU(profileCPU); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
	}

	if profileTrace != "" {
		if err := profiler.StartTrace(profileTrace); err != nil {
			profiler.Stop()
			return fmt.Errorf("failed to start trace: %w", err)
		}
	}

	return nil
}

// stopProfilingAndLogging stops profiling and logging, writes the heap profile if requested.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	profiler.Stop()

	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}

	if loggingCleanup != nil {
		slog.Info("debug_logging_stopped")
		loggingCleanup()
		loggingCleanup = nil
	}

	return nil
}

// Execute runs the root command. Errors are printed with their code and
// suggestion before returning, so main only has to set the exit status.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, dferrors.FormatForCLI(err))
	}
	return err
}
