package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestDefaultLogDir(t *testing.T) {
	dir := DefaultLogDir()
	if dir == "" {
		t.Fatal("DefaultLogDir returned empty string")
	}
	if !strings.Contains(dir, ".dfind") {
		t.Errorf("DefaultLogDir = %q, want path containing .dfind", dir)
	}
	if filepath.Base(dir) != "logs" {
		t.Errorf("DefaultLogDir = %q, want path ending in logs", dir)
	}
}

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()
	if filepath.Base(path) != "dfind.log" {
		t.Errorf("DefaultLogPath = %q, want path ending in dfind.log", path)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.MaxSizeMB != 10 {
		t.Errorf("MaxSizeMB = %d, want 10", cfg.MaxSizeMB)
	}
	if cfg.MaxFiles != 5 {
		t.Errorf("MaxFiles = %d, want 5", cfg.MaxFiles)
	}
	if !cfg.WriteToStderr {
		t.Error("WriteToStderr = false, want true")
	}
}

func TestDebugConfig(t *testing.T) {
	cfg := DebugConfig()
	if cfg.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Level)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelFromString(t *testing.T) {
	if got := LevelFromString("error"); got != slog.LevelError {
		t.Errorf("LevelFromString(error) = %v, want %v", got, slog.LevelError)
	}
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")

	cfg := Config{
		Level:         "debug",
		FilePath:      logPath,
		MaxSizeMB:     10,
		MaxFiles:      3,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Info("test message", "key", "value")
	cleanup()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want test message", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
}

func TestSetupCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "sub", "test.log")

	cfg := DefaultConfig()
	cfg.FilePath = logPath
	cfg.WriteToStderr = false

	_, cleanup, err := Setup(cfg)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	cleanup()

	if _, err := os.Stat(filepath.Dir(logPath)); err != nil {
		t.Errorf("log directory was not created: %v", err)
	}
}

func TestSetupRespectsLevel(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")

	cfg := Config{Level: "warn", FilePath: logPath, WriteToStderr: false}
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("also hidden")
	logger.Warn("visible")
	cleanup()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("log contains entries below the configured level")
	}
	if !strings.Contains(string(data), "visible") {
		t.Error("log is missing entries at the configured level")
	}
}

func TestRotatingWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	w, err := NewRotatingWriter(path, 10, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}

	n, err := w.Write([]byte("hello\n"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 6 {
		t.Errorf("Write returned %d, want 6", n)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("file content = %q, want hello\\n", data)
	}
}

func TestRotatingWriterAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	if err := os.WriteFile(path, []byte("existing\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewRotatingWriter(path, 10, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	if _, err := w.Write([]byte("new\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	_ = w.Close()

	data, _ := os.ReadFile(path)
	if string(data) != "existing\nnew\n" {
		t.Errorf("file content = %q, want existing then new", data)
	}
}

func TestRotatingWriterRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	w, err := NewRotatingWriter(path, 1, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	if _, err := w.Write(chunk); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	// Second write exceeds 1MB and triggers rotation.
	if _, err := w.Write(chunk); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("rotated file does not exist: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat current file: %v", err)
	}
	if info.Size() != int64(len(chunk)) {
		t.Errorf("current file size = %d, want %d", info.Size(), len(chunk))
	}
}

func TestRotatingWriterMaxFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	w, err := NewRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	chunk := bytes.Repeat([]byte("y"), 700*1024)
	for i := 0; i < 6; i++ {
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("%s.1 should exist: %v", path, err)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("%s.3 should not exist beyond maxFiles=2", path)
	}
}

func TestRotatingWriterWriteAfterClose(t *testing.T) {
	dir := t.TempDir()
	w, err := NewRotatingWriter(filepath.Join(dir, "test.log"), 10, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := w.Write([]byte("data")); err == nil {
		t.Error("Write after Close should fail")
	}
	// Close is idempotent.
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestRotatingWriterDefaults(t *testing.T) {
	dir := t.TempDir()
	w, err := NewRotatingWriter(filepath.Join(dir, "test.log"), 0, 0)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	if w.maxSize != 10*1024*1024 {
		t.Errorf("maxSize = %d, want 10MB default", w.maxSize)
	}
	if w.maxFiles != 5 {
		t.Errorf("maxFiles = %d, want 5 default", w.maxFiles)
	}
}

func TestParseLineValid(t *testing.T) {
	line := `{"time":"2025-06-01T10:30:00.123456Z","level":"INFO","msg":"indexing started","volume":"/","workers":8}`
	entry := parseLine(line)

	if !entry.IsValid {
		t.Fatal("entry should be valid")
	}
	if entry.Level != "INFO" {
		t.Errorf("Level = %q, want INFO", entry.Level)
	}
	if entry.Msg != "indexing started" {
		t.Errorf("Msg = %q, want indexing started", entry.Msg)
	}
	if entry.Time.Hour() != 10 || entry.Time.Minute() != 30 {
		t.Errorf("Time = %v, want 10:30", entry.Time)
	}
	if entry.Attrs["volume"] != "/" {
		t.Errorf("Attrs[volume] = %v, want /", entry.Attrs["volume"])
	}
	if _, ok := entry.Attrs["msg"]; ok {
		t.Error("msg should not appear in Attrs")
	}
}

func TestParseLineInvalid(t *testing.T) {
	entry := parseLine("not json at all")
	if entry.IsValid {
		t.Error("entry should be invalid")
	}
	if entry.Raw != "not json at all" {
		t.Errorf("Raw = %q, want original line", entry.Raw)
	}
}

func TestMatchesFilterLevel(t *testing.T) {
	entry := LogEntry{Level: "INFO", Msg: "hello", IsValid: true}

	if !matchesFilter(entry, ViewerConfig{}) {
		t.Error("no filter should match everything")
	}
	if !matchesFilter(entry, ViewerConfig{Level: "debug"}) {
		t.Error("INFO entry should pass debug filter")
	}
	if matchesFilter(entry, ViewerConfig{Level: "error"}) {
		t.Error("INFO entry should not pass error filter")
	}
}

func TestMatchesFilterPattern(t *testing.T) {
	entry := LogEntry{Level: "INFO", Msg: "volume scan complete", IsValid: true, Raw: `{"msg":"volume scan complete"}`}

	if !matchesFilter(entry, ViewerConfig{Pattern: "SCAN"}) {
		t.Error("pattern match should be case-insensitive")
	}
	if matchesFilter(entry, ViewerConfig{Pattern: "missing"}) {
		t.Error("non-matching pattern should filter out entry")
	}
}

func TestFormatEntry(t *testing.T) {
	entry := LogEntry{
		Time:    time.Date(2025, 6, 1, 10, 30, 0, 123000000, time.UTC),
		Level:   "INFO",
		Msg:     "files indexed",
		Attrs:   map[string]any{"count": float64(1500), "volume": "/"},
		IsValid: true,
	}

	got := FormatEntry(entry, ViewerConfig{NoColor: true})
	if !strings.HasPrefix(got, "10:30:00.123 INFO ") {
		t.Errorf("FormatEntry = %q, want timestamp and level prefix", got)
	}
	if !strings.Contains(got, "files indexed") {
		t.Errorf("FormatEntry = %q, want message", got)
	}
	// Attrs are sorted by key.
	if !strings.Contains(got, "count=1500 volume=/") {
		t.Errorf("FormatEntry = %q, want sorted attrs", got)
	}
}

func TestFormatEntryInvalid(t *testing.T) {
	entry := LogEntry{Raw: "plain text line"}
	if got := FormatEntry(entry, ViewerConfig{NoColor: true}); got != "plain text line" {
		t.Errorf("FormatEntry = %q, want raw line", got)
	}
}

func TestFormatLevelColors(t *testing.T) {
	if got := formatLevel("info", true); got != "INFO " {
		t.Errorf("formatLevel no color = %q, want padded INFO", got)
	}
	if got := formatLevel("error", false); !strings.Contains(got, "\033[31m") {
		t.Errorf("formatLevel error = %q, want red ANSI code", got)
	}
}

func writeLogLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func logLine(level, msg string) string {
	return fmt.Sprintf(`{"time":"2025-06-01T10:30:00Z","level":%q,"msg":%q}`, level, msg)
}

func TestTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	writeLogLines(t, path,
		logLine("INFO", "first"),
		logLine("INFO", "second"),
		logLine("INFO", "third"),
	)

	entries, err := Tail(path, 2, ViewerConfig{})
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Msg != "second" || entries[1].Msg != "third" {
		t.Errorf("got %q, %q; want second, third", entries[0].Msg, entries[1].Msg)
	}
}

func TestTailLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	writeLogLines(t, path,
		logLine("DEBUG", "noise"),
		logLine("ERROR", "problem"),
	)

	entries, err := Tail(path, 0, ViewerConfig{Level: "warn"})
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Msg != "problem" {
		t.Errorf("Msg = %q, want problem", entries[0].Msg)
	}
}

func TestTailMissingFile(t *testing.T) {
	_, err := Tail(filepath.Join(t.TempDir(), "missing.log"), 10, ViewerConfig{})
	if err == nil {
		t.Error("Tail on missing file should fail")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	writeLogLines(t, path, logLine("INFO", "before follow"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, path, ViewerConfig{NoColor: true}, out)
	}()

	// Give Follow time to seek to the end, then append a new entry.
	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(logLine("INFO", "after follow") + "\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), "after follow") {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Follow returned %v, want context.Canceled", err)
	}

	got := out.String()
	if strings.Contains(got, "before follow") {
		t.Error("Follow should skip entries written before it started")
	}
	if !strings.Contains(got, "after follow") {
		t.Errorf("Follow output = %q, want new entry", got)
	}
}
