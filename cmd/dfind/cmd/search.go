package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dfind/dfind/internal/config"
	dferrors "github.com/dfind/dfind/internal/errors"
	"github.com/dfind/dfind/internal/logging"
	"github.com/dfind/dfind/internal/output"
	"github.com/dfind/dfind/internal/present"
	"github.com/dfind/dfind/internal/search"
	"github.com/dfind/dfind/internal/store"
	"github.com/dfind/dfind/internal/ui"
)

type searchOptions struct {
	exact         bool
	caseSensitive bool
	scope         string
	entryType     string
	limit         int
	jsonOutput    bool
	plain         bool
	copyPaths     bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search the index by name or path",
		Long: `Search indexed file names against the persistent index.

A plain term matches as a substring: 'report' finds every entry whose
name contains "report". Terms with * match as wildcards: '*.pdf' finds
names ending in ".pdf". Use \* and \\ to match literal asterisks and
backslashes. Matching folds ASCII case unless --case-sensitive is set.

With --exact the term must equal the whole name; wildcard syntax is off
and the term is taken verbatim.

Results come from the last 'dfind index' run. When a viewer command is
configured and stdout is a terminal, matching paths are handed to it;
otherwise they print one per line.`,
		Example: `  # Substring search
  dfind search report

  # Wildcard, case sensitive
  dfind search '*.PDF' --case-sensitive

  # Exact name match, directories only
  dfind search node_modules --exact --type dir

  # Match against the full path, first 20 hits
  dfind search projects --scope path -n 20

  # Copy matching paths to the clipboard
  dfind search budget.xlsx --copy`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, term, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.exact, "exact", "e", false, "Match the whole name verbatim, no wildcards")
	cmd.Flags().BoolVarP(&opts.caseSensitive, "case-sensitive", "c", false, "Compare bytes instead of folding ASCII case")
	cmd.Flags().StringVar(&opts.scope, "scope", "", "Match against: name, path, or both (default from config)")
	cmd.Flags().StringVarP(&opts.entryType, "type", "t", "", "Restrict to: all, file, or dir (default from config)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum results, 0 for unlimited (default from config)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Print paths only, skip the viewer hand-off")
	cmd.Flags().BoolVar(&opts.copyPaths, "copy", false, "Copy matching paths to the clipboard")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, term string, opts searchOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// File-only logging unless --debug already installed its handler.
	if !debugMode {
		logCfg := logging.DefaultConfig()
		logCfg.WriteToStderr = false
		if logger, cleanup, err := logging.Setup(logCfg); err == nil {
			slog.SetDefault(logger)
			defer cleanup()
		}
	}
	slog.Info("search_started", slog.String("term", term))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	searchOpts, err := resolveSearchOptions(cfg, opts)
	if err != nil {
		return err
	}

	st, err := openIndexStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	eng, err := search.New(st)
	if err != nil {
		return err
	}

	result, err := eng.Search(ctx, term, searchOpts)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		return formatSearchJSON(cmd, result)
	}

	paths := make([]string, 0, len(result.Entries))
	for _, e := range result.Entries {
		paths = append(paths, e.Path)
	}

	if opts.copyPaths {
		return copyToClipboard(cmd, paths)
	}

	plainMode := opts.plain || cfg.UI.Plain
	if !plainMode && result.Count > 0 && ui.IsTTY(os.Stdout) {
		p := present.NewPresenter(cfg.UI.Viewer)
		if p.Available() {
			return p.Present(ctx, paths)
		}
	}

	formatSearchText(cmd, result, !plainMode && ui.IsTTY(os.Stdout))
	return nil
}

// resolveSearchOptions merges flags over the configured search defaults.
func resolveSearchOptions(cfg *config.Config, opts searchOptions) (search.Options, error) {
	scope := opts.scope
	if scope == "" {
		scope = cfg.Search.Scope
	}
	entryType := opts.entryType
	if entryType == "" {
		entryType = cfg.Search.Type
	}
	limit := opts.limit
	if limit == 0 {
		limit = cfg.Search.Limit
	}

	scope = strings.ToLower(scope)
	entryType = strings.ToLower(entryType)

	switch scope {
	case config.ScopeName, config.ScopePath, config.ScopeBoth:
	default:
		return search.Options{}, dferrors.ConfigError(
			"scope must be 'name', 'path', or 'both', got "+scope, nil)
	}
	switch entryType {
	case config.TypeAll, config.TypeFile, config.TypeDir:
	default:
		return search.Options{}, dferrors.ConfigError(
			"type must be 'all', 'file', or 'dir', got "+entryType, nil)
	}
	if limit < 0 {
		limit = 0
	}

	return search.Options{
		Exact:         opts.exact,
		CaseSensitive: opts.caseSensitive,
		Scope:         store.Scope(scope),
		Type:          store.EntryType(entryType),
		Limit:         limit,
	}, nil
}

// openIndexStore opens the store read path, with a friendly error when no
// index has been built yet.
func openIndexStore(cfg *config.Config) (store.IndexStore, error) {
	path := cfg.Store.Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, dferrors.New(dferrors.ErrCodeStoreUnavailable,
			"no index found at "+path, nil).
			WithSuggestion("Run 'dfind index' to build the index")
	}
	return store.Open(path)
}

func copyToClipboard(cmd *cobra.Command, paths []string) error {
	out := output.New(cmd.OutOrStdout())

	cb := present.NewClipboard()
	if !cb.Available() {
		return dferrors.InternalError("clipboard is not supported on this platform", nil)
	}
	if err := cb.CopyPaths(paths); err != nil {
		return err
	}

	out.Successf("Copied %s paths to clipboard", output.Count(int64(len(paths))))
	return nil
}

// formatSearchText prints one path per line. The summary line only appears
// in interactive use so piped output stays clean.
func formatSearchText(cmd *cobra.Command, result *search.Result, interactive bool) {
	out := output.New(cmd.OutOrStdout())

	if interactive {
		out.Statusf("🔍", "%s results for %q in %s",
			output.Count(int64(result.Count)), result.Term, output.Duration(result.Elapsed))
		if result.Count > 0 {
			out.Newline()
		}
	}

	for _, e := range result.Entries {
		out.Plain(e.Path)
	}
}

type searchJSONEntry struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Volume  string    `json:"volume"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Dir     bool      `json:"dir"`
}

type searchJSONResult struct {
	Term      string            `json:"term"`
	Exact     bool              `json:"exact"`
	Wildcard  bool              `json:"wildcard"`
	Count     int               `json:"count"`
	ElapsedMS float64           `json:"elapsed_ms"`
	Results   []searchJSONEntry `json:"results"`
}

func formatSearchJSON(cmd *cobra.Command, result *search.Result) error {
	payload := searchJSONResult{
		Term:      result.Term,
		Exact:     result.Exact,
		Wildcard:  result.Wildcard,
		Count:     result.Count,
		ElapsedMS: float64(result.Elapsed.Microseconds()) / 1000.0,
		Results:   make([]searchJSONEntry, 0, len(result.Entries)),
	}
	for _, e := range result.Entries {
		payload.Results = append(payload.Results, searchJSONEntry{
			Path:    e.Path,
			Name:    e.Name,
			Volume:  e.Volume,
			Size:    e.Size,
			ModTime: e.ModTime,
			Dir:     e.IsDir,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
