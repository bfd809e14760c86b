//go:build windows

package preflight

// CheckFileDescriptors always passes; windows has no per-process
// descriptor limit to inspect.
func (c *Checker) CheckFileDescriptors() CheckResult {
	return CheckResult{
		Name:     "file_descriptors",
		Status:   StatusPass,
		Message:  "no descriptor limit on this platform",
		Required: true,
	}
}
