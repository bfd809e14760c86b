package preflight

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/dfind/dfind/internal/config"
	"github.com/dfind/dfind/internal/store"
)

// CheckStore verifies the index store opens and answers queries. A store
// that does not exist yet passes; the first index run creates it.
func (c *Checker) CheckStore(ctx context.Context, cfg *config.Config) CheckResult {
	result := CheckResult{
		Name:     "index_store",
		Required: true,
	}

	path := cfg.Store.Path()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = StatusPass
		result.Message = "not created yet (run 'dfind index')"
		result.Required = false
		return result
	}
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot stat store: %v", err)
		return result
	}

	st, err := store.Open(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("store unusable: %v", err)
		result.Details = "Rebuild with 'dfind clean' followed by 'dfind index'"
		return result
	}
	defer func() { _ = st.Close() }()

	stats, err := st.Stats(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("store unreadable: %v", err)
		result.Details = "Rebuild with 'dfind clean' followed by 'dfind index'"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s entries across %d volumes (%s on disk)",
		humanize.Comma(stats.Files+stats.Dirs), stats.Volumes, humanize.IBytes(uint64(info.Size())))
	return result
}
