// Package errors provides structured error handling for dfind.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Index store errors
//   - 3XX: Traversal errors (per-path, contained)
//   - 4XX: Query validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStore indicates index store errors. These are fatal to a run.
	CategoryStore Category = "STORE"
	// CategoryTraversal indicates per-path filesystem errors during a walk.
	// They are contained and aggregated, never fatal.
	CategoryTraversal Category = "TRAVERSAL"
	// CategoryQuery indicates malformed search input.
	CategoryQuery Category = "QUERY"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort the run.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid       = "ERR_101_CONFIG_INVALID"
	ErrCodeLocationUnreachable = "ERR_102_LOCATION_UNREACHABLE"
	ErrCodeNoVolumes           = "ERR_103_NO_VOLUMES"

	// Store errors (200-299)
	ErrCodeStoreUnavailable = "ERR_201_STORE_UNAVAILABLE"
	ErrCodeStoreCorrupt     = "ERR_202_STORE_CORRUPT"
	ErrCodeStoreLocked      = "ERR_203_STORE_LOCKED"
	ErrCodeStoreClosed      = "ERR_204_STORE_CLOSED"

	// Traversal errors (300-399)
	ErrCodeWalkFailed     = "ERR_301_WALK_FAILED"
	ErrCodePathPermission = "ERR_302_PATH_PERMISSION"

	// Query errors (400-499)
	ErrCodeQueryEmpty = "ERR_401_QUERY_EMPTY"
	ErrCodeBadPattern = "ERR_402_BAD_PATTERN"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "201" from "ERR_201_STORE_UNAVAILABLE".
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStore
	case '3':
		return CategoryTraversal
	case '4':
		return CategoryQuery
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// Store failures abort the run; per-path and per-location failures
// are contained and surface as warnings in the run summary.
func severityFromCode(code string) Severity {
	switch categoryFromCode(code) {
	case CategoryStore:
		return SeverityFatal
	case CategoryTraversal:
		return SeverityWarning
	case CategoryConfig:
		if code == ErrCodeLocationUnreachable {
			return SeverityWarning
		}
		return SeverityError
	default:
		return SeverityError
	}
}

// isRetryableCode checks if an error code represents a retryable condition.
// A locked store clears once the competing indexing run finishes.
func isRetryableCode(code string) bool {
	return code == ErrCodeStoreLocked
}
