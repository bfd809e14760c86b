// Package preflight provides the system checks behind 'dfind doctor'.
//
// The package validates:
//   - Data directory existence and write permissions
//   - Disk space at the data directory (minimum 100MB)
//   - File descriptor limits (minimum 1024)
//   - Available memory (minimum 1GB)
//   - Index store integrity
//   - Volume detection and selection
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, cfg)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
