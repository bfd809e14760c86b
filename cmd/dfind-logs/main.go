// Package main provides the dfind-logs command, a viewer for dfind's
// JSON log files.
//
// Usage:
//
//	dfind-logs [flags]
//
// Flags:
//
//	-f, --follow         Follow log output (like tail -f)
//	-n, --lines int      Number of lines to show (default 50)
//	    --level string   Filter by level (debug|info|warn|error)
//	    --filter string  Filter by substring (case-insensitive)
//	    --no-color       Disable colored output
//	    --file string    Custom log file path
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dfind/dfind/internal/logging"
	"github.com/dfind/dfind/pkg/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	noColor bool
	logFile string
}

func newRootCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "dfind-logs",
		Short: "View dfind logs",
		Long: `View and tail the dfind log file.

dfind writes JSON log lines to ~/.dfind/logs/dfind.log during index
and search runs, and at debug level when --debug is set. This command
renders them as readable lines.

By default, shows the last 50 entries. Use -f to follow new entries in
real-time (like 'tail -f').

Examples:
  dfind-logs                    # Show last 50 entries
  dfind-logs -n 100             # Show last 100 entries
  dfind-logs -f                 # Follow in real-time
  dfind-logs --level error      # Only error entries
  dfind-logs --filter volume    # Entries mentioning "volume"`,
		Version: version.Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Filter by log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Filter by substring (case-insensitive)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&opts.logFile, "file", "", "Path to log file (default ~/.dfind/logs/dfind.log)")

	return cmd
}

func runLogs(ctx context.Context, opts logsOptions) error {
	path := opts.logFile
	if path == "" {
		path = logging.DefaultLogPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("no log file at %s (run 'dfind index' to create one)", path)
	}

	cfg := logging.ViewerConfig{
		Level:   opts.level,
		Pattern: opts.filter,
		NoColor: opts.noColor,
	}

	fmt.Fprintf(os.Stderr, "Log file: %s\n", path)
	if opts.follow {
		fmt.Fprintln(os.Stderr, "Following... (Ctrl+C to stop)")
	}
	fmt.Fprintln(os.Stderr, "---")

	if opts.follow {
		return runFollow(ctx, path, cfg)
	}

	entries, err := logging.Tail(path, opts.lines, cfg)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		fmt.Println(logging.FormatEntry(entry, cfg))
	}
	return nil
}

func runFollow(ctx context.Context, path string, cfg logging.ViewerConfig) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := logging.Follow(ctx, path, cfg, os.Stdout)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "\n---")
		fmt.Fprintln(os.Stderr, "Stopped.")
		return nil
	}
	return err
}
