package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// LogEntry is a parsed JSON log line.
type LogEntry struct {
	Time    time.Time
	Level   string
	Msg     string
	Attrs   map[string]any
	Raw     string
	IsValid bool
}

// ViewerConfig controls filtering and formatting of log output.
type ViewerConfig struct {
	// Level is the minimum level to show (empty means all).
	Level string
	// Pattern filters entries by substring match (case-insensitive).
	Pattern string
	// NoColor disables ANSI colors.
	NoColor bool
}

// Tail returns the last n entries of the log file that match the filter.
// n <= 0 means all entries.
func Tail(path string, n int, cfg ViewerConfig) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []LogEntry
	scanner := bufio.NewScanner(file)
	// Log lines with large attribute payloads can exceed the default buffer.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		entry := parseLine(scanner.Text())
		if matchesFilter(entry, cfg) {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Follow streams new log entries to out until ctx is cancelled.
// It starts at the end of the file and handles rotation by reopening at
// offset zero when the file shrinks.
func Follow(ctx context.Context, path string, cfg ViewerConfig, out io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var pending string
	for {
		chunk, err := reader.ReadString('\n')
		offset += int64(len(chunk))
		pending += chunk
		if err == nil {
			entry := parseLine(strings.TrimRight(pending, "\n"))
			pending = ""
			if matchesFilter(entry, cfg) {
				fmt.Fprintln(out, FormatEntry(entry, cfg))
			}
			continue
		}
		if err != io.EOF {
			return fmt.Errorf("read log file: %w", err)
		}

		// The writer rotated the file if it is now smaller than our offset.
		if info, statErr := os.Stat(path); statErr == nil && info.Size() < offset {
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("seek log file: %w", err)
			}
			reader.Reset(file)
			offset = 0
			pending = ""
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// FormatEntry renders an entry as a single human-readable line.
func FormatEntry(entry LogEntry, cfg ViewerConfig) string {
	if !entry.IsValid {
		return entry.Raw
	}

	var sb strings.Builder
	sb.WriteString(entry.Time.Format("15:04:05.000"))
	sb.WriteString(" ")
	sb.WriteString(formatLevel(entry.Level, cfg.NoColor))
	sb.WriteString(" ")
	sb.WriteString(entry.Msg)

	if len(entry.Attrs) > 0 {
		keys := make([]string, 0, len(entry.Attrs))
		for k := range entry.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf(" %s=%v", k, entry.Attrs[k]))
		}
	}

	return sb.String()
}

// parseLine parses one JSON log line. Non-JSON lines are kept raw.
func parseLine(line string) LogEntry {
	entry := LogEntry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return entry
	}
	entry.IsValid = true

	if ts, ok := data["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Time = t
		}
	}
	if level, ok := data["level"].(string); ok {
		entry.Level = level
	}
	if msg, ok := data["msg"].(string); ok {
		entry.Msg = msg
	}

	for k, v := range data {
		switch k {
		case "time", "level", "msg":
		default:
			if entry.Attrs == nil {
				entry.Attrs = make(map[string]any)
			}
			entry.Attrs[k] = v
		}
	}
	return entry
}

// matchesFilter reports whether an entry passes the viewer filters.
func matchesFilter(entry LogEntry, cfg ViewerConfig) bool {
	if cfg.Level != "" && entry.IsValid {
		if LevelFromString(entry.Level) < LevelFromString(cfg.Level) {
			return false
		}
	}
	if cfg.Pattern != "" {
		needle := strings.ToLower(cfg.Pattern)
		if !strings.Contains(strings.ToLower(entry.Msg), needle) &&
			!strings.Contains(strings.ToLower(entry.Raw), needle) {
			return false
		}
	}
	return true
}

// formatLevel pads and colorizes a level name.
func formatLevel(level string, noColor bool) string {
	padded := fmt.Sprintf("%-5s", strings.ToUpper(level))
	if noColor {
		return padded
	}

	switch strings.ToUpper(level) {
	case "DEBUG":
		return "\033[36m" + padded + "\033[0m"
	case "INFO":
		return "\033[32m" + padded + "\033[0m"
	case "WARN", "WARNING":
		return "\033[33m" + padded + "\033[0m"
	case "ERROR":
		return "\033[31m" + padded + "\033[0m"
	default:
		return padded
	}
}
