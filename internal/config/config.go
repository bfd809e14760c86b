// Package config loads and validates dfind configuration.
//
// Configuration is layered in order of increasing precedence:
//  1. Hardcoded defaults (NewConfig)
//  2. User config (~/.config/dfind/config.yaml)
//  3. Environment variables (DFIND_*)
//  4. Command-line flags (applied by the cmd layer)
//
// The loaded Config is treated as immutable for the rest of the run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Index modes.
const (
	ModeParallel   = "parallel"
	ModeSequential = "sequential"
)

// Search scopes.
const (
	ScopeName = "name"
	ScopePath = "path"
	ScopeBoth = "both"
)

// Entry type filters.
const (
	TypeAll  = "all"
	TypeFile = "file"
	TypeDir  = "dir"
)

// Config represents the complete dfind configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Volumes VolumesConfig `yaml:"volumes" json:"volumes"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	UI      UIConfig      `yaml:"ui" json:"ui"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// StoreConfig configures where the index database lives.
type StoreConfig struct {
	// Dir is the data directory holding the store and lock files.
	Dir string `yaml:"dir" json:"dir"`
	// Prefix is the store file name without extension.
	Prefix string `yaml:"prefix" json:"prefix"`
	// Extension is the store file extension including the dot.
	Extension string `yaml:"extension" json:"extension"`
}

// Path returns the full path of the store database file.
func (s StoreConfig) Path() string {
	return filepath.Join(s.Dir, s.Prefix+s.Extension)
}

// LockPath returns the path of the single-writer lock file.
func (s StoreConfig) LockPath() string {
	return filepath.Join(s.Dir, s.Prefix+".lock")
}

// VolumesConfig controls which volumes get indexed.
type VolumesConfig struct {
	// Ignored volumes are removed from the detected set.
	Ignored []string `yaml:"ignored" json:"ignored"`
	// Whitelist, when non-empty, keeps only the listed detected volumes.
	Whitelist []string `yaml:"whitelist" json:"whitelist"`
	// Custom locations are indexed in addition to detected volumes and
	// are placed first in the resolved order.
	Custom []string `yaml:"custom" json:"custom"`
}

// IndexConfig configures the index run.
type IndexConfig struct {
	// Mode is "parallel" or "sequential".
	Mode string `yaml:"mode" json:"mode"`
	// Workers bounds the parallel worker pool. 0 means NumCPU.
	Workers int `yaml:"workers" json:"workers"`
	// ExcludeDirs are directory names pruned during the walk.
	ExcludeDirs []string `yaml:"exclude_dirs" json:"exclude_dirs"`
	// IncludeSymlinks records symbolic links as index entries. Links are
	// never descended into, so cycles cannot occur.
	IncludeSymlinks bool `yaml:"include_symlinks" json:"include_symlinks"`
}

// SearchConfig holds search defaults; flags override per invocation.
type SearchConfig struct {
	// Scope is "name", "path", or "both".
	Scope string `yaml:"scope" json:"scope"`
	// Type filters results: "all", "file", or "dir".
	Type string `yaml:"type" json:"type"`
	// Limit caps result count. 0 means unlimited.
	Limit int `yaml:"limit" json:"limit"`
}

// UIConfig configures output rendering and result hand-off.
type UIConfig struct {
	// Viewer is the external command search results are piped to.
	// Empty means print to stdout.
	Viewer string `yaml:"viewer" json:"viewer"`
	// Plain disables the viewer and progress rendering.
	Plain bool `yaml:"plain" json:"plain"`
	// NoColor disables ANSI styling.
	NoColor bool `yaml:"no_color" json:"no_color"`
}

// LogConfig configures file logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	// File is the log file path. Empty uses the default under ~/.dfind/logs.
	File string `yaml:"file" json:"file"`
}

// defaultExcludeDirs are directory names skipped during every walk.
// The Windows entries match what the recycle bin and volume indexer create;
// the unix entries are trash and fsck artifacts.
var defaultExcludeDirs = []string{
	"$RECYCLE.BIN",
	"System Volume Information",
	".Trash",
	".Trashes",
	"lost+found",
}

// NewConfig creates a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Store: StoreConfig{
			Dir:       DefaultDataDir(),
			Prefix:    "index",
			Extension: ".db",
		},
		Volumes: VolumesConfig{
			Ignored:   nil,
			Whitelist: nil,
			Custom:    nil,
		},
		Index: IndexConfig{
			Mode:            ModeParallel,
			Workers:         runtime.NumCPU(),
			ExcludeDirs:     defaultExcludeDirs,
			IncludeSymlinks: false,
		},
		Search: SearchConfig{
			Scope: ScopeName,
			Type:  TypeAll,
			Limit: 0,
		},
		UI: UIConfig{
			Viewer:  "",
			Plain:   false,
			NoColor: false,
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
	}
}

// DefaultDataDir returns the default data directory (~/.dfind).
// Falls back to temp directory if home directory is unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".dfind")
	}
	return filepath.Join(home, ".dfind")
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/dfind/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/dfind/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dfind", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "dfind", "config.yaml")
	}
	return filepath.Join(home, ".config", "dfind", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds the effective configuration from defaults, the user config
// file, and DFIND_* environment variables, then validates it.
func Load() (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Store
	if other.Store.Dir != "" {
		c.Store.Dir = other.Store.Dir
	}
	if other.Store.Prefix != "" {
		c.Store.Prefix = other.Store.Prefix
	}
	if other.Store.Extension != "" {
		c.Store.Extension = other.Store.Extension
	}

	// Volumes: lists replace rather than append so a user can clear the
	// defaults by omission and fully control the set.
	if len(other.Volumes.Ignored) > 0 {
		c.Volumes.Ignored = other.Volumes.Ignored
	}
	if len(other.Volumes.Whitelist) > 0 {
		c.Volumes.Whitelist = other.Volumes.Whitelist
	}
	if len(other.Volumes.Custom) > 0 {
		c.Volumes.Custom = other.Volumes.Custom
	}

	// Index
	if other.Index.Mode != "" {
		c.Index.Mode = other.Index.Mode
	}
	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}
	if len(other.Index.ExcludeDirs) > 0 {
		// Merge with defaults rather than replace.
		c.Index.ExcludeDirs = append(c.Index.ExcludeDirs, other.Index.ExcludeDirs...)
	}
	if other.Index.IncludeSymlinks {
		c.Index.IncludeSymlinks = true
	}

	// Search
	if other.Search.Scope != "" {
		c.Search.Scope = other.Search.Scope
	}
	if other.Search.Type != "" {
		c.Search.Type = other.Search.Type
	}
	if other.Search.Limit != 0 {
		c.Search.Limit = other.Search.Limit
	}

	// UI
	if other.UI.Viewer != "" {
		c.UI.Viewer = other.UI.Viewer
	}
	if other.UI.Plain {
		c.UI.Plain = true
	}
	if other.UI.NoColor {
		c.UI.NoColor = true
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.File != "" {
		c.Log.File = other.Log.File
	}
}

// applyEnvOverrides applies DFIND_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DFIND_DATA_DIR"); v != "" {
		c.Store.Dir = v
	}
	if v := os.Getenv("DFIND_INDEX_MODE"); v != "" {
		c.Index.Mode = v
	}
	if v := os.Getenv("DFIND_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Workers = n
		}
	}
	if v := os.Getenv("DFIND_SEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Search.Limit = n
		}
	}
	if v := os.Getenv("DFIND_VIEWER"); v != "" {
		c.UI.Viewer = v
	}
	if v := os.Getenv("DFIND_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DFIND_NO_COLOR"); v != "" {
		c.UI.NoColor = strings.ToLower(v) == "true" || v == "1"
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Store.Prefix == "" {
		return fmt.Errorf("store.prefix must not be empty")
	}
	if c.Store.Extension == "" || !strings.HasPrefix(c.Store.Extension, ".") {
		return fmt.Errorf("store.extension must start with a dot, got %q", c.Store.Extension)
	}

	validModes := map[string]bool{ModeParallel: true, ModeSequential: true}
	if !validModes[strings.ToLower(c.Index.Mode)] {
		return fmt.Errorf("index.mode must be 'parallel' or 'sequential', got %s", c.Index.Mode)
	}
	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must be non-negative, got %d", c.Index.Workers)
	}

	validScopes := map[string]bool{ScopeName: true, ScopePath: true, ScopeBoth: true}
	if !validScopes[strings.ToLower(c.Search.Scope)] {
		return fmt.Errorf("search.scope must be 'name', 'path', or 'both', got %s", c.Search.Scope)
	}
	validTypes := map[string]bool{TypeAll: true, TypeFile: true, TypeDir: true}
	if !validTypes[strings.ToLower(c.Search.Type)] {
		return fmt.Errorf("search.type must be 'all', 'file', or 'dir', got %s", c.Search.Type)
	}
	if c.Search.Limit < 0 {
		return fmt.Errorf("search.limit must be non-negative, got %d", c.Search.Limit)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
