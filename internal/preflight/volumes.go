package preflight

import (
	"fmt"

	"github.com/dfind/dfind/internal/config"
	"github.com/dfind/dfind/internal/volume"
)

// CheckVolumeDetection enumerates and filters volumes the way an index run
// would. Selecting zero volumes is a warning, not a failure; a config may
// deliberately ignore everything.
func (c *Checker) CheckVolumeDetection(cfg *config.Config) CheckResult {
	result := CheckResult{
		Name:     "volume_detection",
		Required: true,
	}

	detected, err := volume.Detect()
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("detection failed: %v", err)
		return result
	}

	vols, warnings := volume.Resolve(detected, volume.Options{
		Ignored:   cfg.Volumes.Ignored,
		Whitelist: cfg.Volumes.Whitelist,
		Custom:    cfg.Volumes.Custom,
	})

	if len(vols) == 0 {
		result.Status = StatusWarn
		result.Message = "no volumes would be indexed"
		result.Details = "Check the ignored and whitelist settings in your config"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d detected, %d selected", len(detected), len(vols))
	if len(warnings) > 0 {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s, %d unreachable custom locations", result.Message, len(warnings))
	}
	return result
}
