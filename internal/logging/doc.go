// Package logging provides opt-in file-based logging with rotation for dfind.
// When the --debug flag is set, comprehensive logs are written to ~/.dfind/logs/
// for debugging and troubleshooting.
//
// Indexing and search runs log to the file only by default so user-facing
// output stays clean; use 'dfind-logs' to view or follow the log.
package logging
