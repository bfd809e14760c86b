package preflight

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// MinMemoryBytes is the minimum recommended memory (1GB). A volume's
// entries are held in memory between walk and commit.
const MinMemoryBytes = 1 * 1024 * 1024 * 1024

// CheckMemory checks if there's sufficient memory for an index run.
func (c *Checker) CheckMemory() CheckResult {
	result := CheckResult{
		Name:     "memory",
		Required: true,
	}

	available, err := systemMemory()
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("could not determine memory: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%s (minimum: %s)",
		humanize.IBytes(available), humanize.IBytes(MinMemoryBytes))
	if available < MinMemoryBytes {
		result.Status = StatusFail
		return result
	}

	result.Status = StatusPass
	return result
}
