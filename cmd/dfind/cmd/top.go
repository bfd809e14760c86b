package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	dferrors "github.com/dfind/dfind/internal/errors"
	"github.com/dfind/dfind/internal/output"
	"github.com/dfind/dfind/internal/store"
)

type topOptions struct {
	limit      int
	ascending  bool
	jsonOutput bool
}

func newTopCmd() *cobra.Command {
	var opts topOptions

	cmd := &cobra.Command{
		Use:   "top [files|folders]",
		Short: "Show the largest files or folders in the index",
		Long: `Rank indexed entries by size.

'top files' ranks individual files by their size. 'top folders' ranks
directories by the total size of their direct child files; nested files
count toward their own parent, not the ancestors.`,
		Example: `  # Ten largest files
  dfind top

  # Twenty-five largest folders
  dfind top folders -n 25

  # Smallest files first
  dfind top files --ascending`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := store.TopFiles
			if len(args) > 0 {
				switch args[0] {
				case "files":
					kind = store.TopFiles
				case "folders":
					kind = store.TopFolders
				default:
					return dferrors.ConfigError(
						fmt.Sprintf("unknown report %q, expected 'files' or 'folders'", args[0]), nil)
				}
			}
			return runTop(cmd.Context(), cmd, kind, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Number of entries to show (1-100)")
	cmd.Flags().BoolVar(&opts.ascending, "ascending", false, "Smallest first instead of largest")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runTop(ctx context.Context, cmd *cobra.Command, kind store.TopKind, opts topOptions) error {
	if opts.limit < 1 || opts.limit > 100 {
		return dferrors.ConfigError(
			fmt.Sprintf("limit must be between 1 and 100, got %d", opts.limit), nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openIndexStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	entries, err := st.TopBySize(ctx, kind, opts.limit, opts.ascending)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		return formatTopJSON(cmd, kind, entries)
	}

	formatTopText(cmd, kind, entries)
	return nil
}

func formatTopText(cmd *cobra.Command, kind store.TopKind, entries []*store.TopEntry) {
	out := output.New(cmd.OutOrStdout())

	if len(entries) == 0 {
		out.Plainf("No %s in the index.", kind)
		return
	}

	for i, e := range entries {
		out.Plainf("%3d. %10s  %s", i+1, output.Size(e.Size), e.Path)
	}
}

type topJSONEntry struct {
	Rank   int    `json:"rank"`
	Path   string `json:"path"`
	Name   string `json:"name"`
	Volume string `json:"volume"`
	Size   int64  `json:"size"`
}

type topJSONResult struct {
	Kind    string         `json:"kind"`
	Count   int            `json:"count"`
	Results []topJSONEntry `json:"results"`
}

func formatTopJSON(cmd *cobra.Command, kind store.TopKind, entries []*store.TopEntry) error {
	payload := topJSONResult{
		Kind:    string(kind),
		Count:   len(entries),
		Results: make([]topJSONEntry, 0, len(entries)),
	}
	for i, e := range entries {
		payload.Results = append(payload.Results, topJSONEntry{
			Rank:   i + 1,
			Path:   e.Path,
			Name:   e.Name,
			Volume: e.Volume,
			Size:   e.Size,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
