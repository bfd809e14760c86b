package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	dferrors "github.com/dfind/dfind/internal/errors"
	"github.com/dfind/dfind/internal/output"
	"github.com/dfind/dfind/internal/ui"
)

func newCleanCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the index database",
		Long: `Remove the index database, its write-ahead log, and the lock file.

The configuration file is left alone. Run 'dfind index' afterwards to
build a fresh index.`,
		Example: `  # Remove the index, with confirmation
  dfind clean

  # No confirmation (scripts)
  dfind clean --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClean(cmd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove without confirmation")

	return cmd
}

func runClean(cmd *cobra.Command, force bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	storePath := cfg.Store.Path()

	if _, err := os.Stat(storePath); os.IsNotExist(err) {
		out.Statusf("✨", "Nothing to clean, no index at %s", storePath)
		return nil
	}

	if !force {
		if !ui.IsTTY(os.Stdin) {
			return dferrors.ConfigError("refusing to remove the index without confirmation", nil).
				WithSuggestion("Pass --force to remove without a prompt")
		}
		out.Statusf("🗑️", "This removes the index at %s", storePath)
		if !confirmRemoval(cmd.InOrStdin(), cmd.OutOrStdout()) {
			out.Status("✋", "Aborted")
			return nil
		}
	}

	// The -wal and -shm sidecars exist while the store is in WAL mode.
	removed := 0
	for _, p := range []string{storePath, storePath + "-wal", storePath + "-shm", cfg.Store.LockPath()} {
		switch err := os.Remove(p); {
		case err == nil:
			removed++
		case !os.IsNotExist(err):
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}

	out.Successf("Removed the index (%d files)", removed)
	out.Status("💡", "Run 'dfind index' to rebuild")
	return nil
}

func confirmRemoval(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Continue? [y/N] ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
