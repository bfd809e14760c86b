package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/dfind/dfind/internal/config"
	"github.com/dfind/dfind/internal/store"
)

// setupTestEnv points the config and data directories at temp space so
// command tests never read or write the real user environment. It returns
// the data directory the commands will use.
func setupTestEnv(t *testing.T) string {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	t.Setenv("DFIND_DATA_DIR", dir)

	return dir
}

// writeUserConfig writes a user config file where loadConfig will find it.
func writeUserConfig(t *testing.T, mutate func(*config.Config)) {
	t.Helper()

	cfg := config.NewConfig()
	if mutate != nil {
		mutate(cfg)
	}

	path := config.GetUserConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, cfg.WriteYAML(path))
}

// seedIndex populates the store in dir with one indexed volume:
//
//	/data              (dir)
//	/data/docs         (dir)
//	/data/docs/report.pdf  2048 bytes
//	/data/notes.txt         512 bytes
func seedIndex(t *testing.T, dir string) {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Store.Dir = dir

	st, err := store.Open(cfg.Store.Path())
	require.NoError(t, err)
	defer func() { require.NoError(t, st.Close()) }()

	now := time.Now().Truncate(time.Second)
	entries := []*store.Entry{
		{Volume: "/data", Path: "/data", Name: "data", ModTime: now, IsDir: true},
		{Volume: "/data", Path: "/data/docs", Name: "docs", ModTime: now, IsDir: true},
		{Volume: "/data", Path: "/data/docs/report.pdf", Name: "report.pdf", Size: 2048, ModTime: now},
		{Volume: "/data", Path: "/data/notes.txt", Name: "notes.txt", Size: 512, ModTime: now},
	}
	folders := []*store.FolderStat{
		{Volume: "/data", Path: "/data", Name: "data", Size: 512, Files: 1},
		{Volume: "/data", Path: "/data/docs", Name: "docs", Size: 2048, Files: 1},
	}
	stat := &store.VolumeStat{
		Volume:    "/data",
		Files:     2,
		Dirs:      2,
		TotalSize: 2560,
		Elapsed:   120 * time.Millisecond,
		IndexedAt: now,
	}

	require.NoError(t, st.ReplaceVolume(context.Background(), "/data", entries, folders, stat))
}

// seedEmptyStore creates the store file in dir without indexing anything.
func seedEmptyStore(t *testing.T, dir string) {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Store.Dir = dir

	st, err := store.Open(cfg.Store.Path())
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

// runCommand executes cmd with args and returns its combined output.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}
