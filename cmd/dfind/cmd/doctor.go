package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dfind/dfind/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system requirements and diagnose issues",
		Long: `Run system diagnostics to ensure dfind can operate correctly.

Checks:
  - Data directory exists and is writable
  - Disk space (100MB minimum)
  - Memory availability (1GB minimum)
  - File descriptor limits (1024 minimum)
  - Index store integrity
  - Volume detection

Use --verbose for detailed diagnostic information.
Use --json for machine-readable output.`,
		Example: `  # Run diagnostics
  dfind doctor

  # Verbose output with details
  dfind doctor --verbose

  # JSON output for scripting
  dfind doctor --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.Context(), cmd, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runDoctor(ctx context.Context, cmd *cobra.Command, verbose, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	checker := preflight.New(
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)

	results := checker.RunAll(ctx, cfg)

	if jsonOutput {
		if err := formatDoctorJSON(cmd, checker, results); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return fmt.Errorf("system check failed")
	}

	return nil
}

type doctorJSONResult struct {
	Status   string                  `json:"status"`
	Checks   []preflight.CheckResult `json:"checks"`
	Warnings []string                `json:"warnings,omitempty"`
	Errors   []string                `json:"errors,omitempty"`
}

func formatDoctorJSON(cmd *cobra.Command, checker *preflight.Checker, results []preflight.CheckResult) error {
	payload := doctorJSONResult{
		Status: checker.SummaryStatus(results),
		Checks: results,
	}

	for _, r := range results {
		if r.IsCritical() {
			payload.Errors = append(payload.Errors, r.Name+": "+r.Message)
		} else if r.Status == preflight.StatusWarn {
			payload.Warnings = append(payload.Warnings, r.Name+": "+r.Message)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
