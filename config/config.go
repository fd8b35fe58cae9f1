package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// DefaultFileName is looked up in the working directory and then in $HOME.
const DefaultFileName = ".changesync.json"

// Config is the root configuration structure.
type Config struct {
	Enabled    bool             `json:"enabled"` // Global switch for Git synchronization
	Repository RepositoryConfig `json:"repository"`
	Store      StoreConfig      `json:"store"`
	History    HistoryConfig    `json:"history"`
	Display    DisplayConfig    `json:"display"`
	Filters    FilterConfig     `json:"filters"`
	Logging    LoggingConfig    `json:"logging"`
}

// RepositoryConfig identifies the repository to synchronize.
type RepositoryConfig struct {
	Path    string `json:"path"`    // Default: "."
	ID      string `json:"id"`      // Default: absolute repository path
	Branch  string `json:"branch"`  // Default: "master"
	HeadRef string `json:"headRef"` // Default: "HEAD"
	Backend string `json:"backend"` // "native" (go-git) or "cli" (git binary)
}

// StoreConfig holds changeset store options.
type StoreConfig struct {
	Path           string `json:"path"`           // Default: ".changesync/changesets.db"
	LockTTLSeconds int    `json:"lockTTLSeconds"` // Default: 600
}

// LockTTL returns the advisory lock expiry as a duration.
func (s StoreConfig) LockTTL() time.Duration {
	return time.Duration(s.LockTTLSeconds) * time.Second
}

// HistoryConfig holds history query options.
type HistoryConfig struct {
	DefaultLimit int `json:"defaultLimit"` // Default: 100
}

// DisplayConfig holds presentation options.
type DisplayConfig struct {
	RevisionFamily string `json:"revisionFamily"` // "git" (6 chars) or "generic" (full)
}

// FilterConfig holds file path filtering options.
type FilterConfig struct {
	Exclude []string `json:"exclude"`
}

// LoggingConfig holds logger options.
type LoggingConfig struct {
	Level  string `json:"level"`  // Default: "info"
	Format string `json:"format"` // "text" or "json"
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Repository: RepositoryConfig{
			Path:    ".",
			Branch:  "master",
			HeadRef: "HEAD",
			Backend: "native",
		},
		Store: StoreConfig{
			Path:           filepath.Join(".changesync", "changesets.db"),
			LockTTLSeconds: 600,
		},
		History: HistoryConfig{
			DefaultLimit: 100,
		},
		Display: DisplayConfig{
			RevisionFamily: "git",
		},
		Filters: FilterConfig{
			Exclude: []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// RepositoryID returns the configured id, or the absolute repository path.
func (c *Config) RepositoryID() string {
	if c.Repository.ID != "" {
		return c.Repository.ID
	}
	if abs, err := filepath.Abs(c.Repository.Path); err == nil {
		return abs
	}
	return c.Repository.Path
}

// LoadConfig loads configuration from a file, merging with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		// Try default locations
		candidates := []string{DefaultFileName}
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			candidates = append(candidates, filepath.Join(home, DefaultFileName))
		}
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig saves configuration to a file.
func SaveConfig(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
