package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Enabled {
		t.Error("Enabled = false, expected true")
	}
	if cfg.Repository.Branch != "master" {
		t.Errorf("Branch = %q, expected master", cfg.Repository.Branch)
	}
	if cfg.Repository.HeadRef != "HEAD" {
		t.Errorf("HeadRef = %q, expected HEAD", cfg.Repository.HeadRef)
	}
	if cfg.History.DefaultLimit != 100 {
		t.Errorf("DefaultLimit = %d, expected 100", cfg.History.DefaultLimit)
	}
	if cfg.Store.LockTTL() != 10*time.Minute {
		t.Errorf("LockTTL = %v, expected 10m", cfg.Store.LockTTL())
	}
	if cfg.Display.RevisionFamily != "git" {
		t.Errorf("RevisionFamily = %q, expected git", cfg.Display.RevisionFamily)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Enabled || cfg.Repository.Branch != "master" {
		t.Errorf("cfg = %+v, expected defaults", cfg)
	}
}

func TestLoadConfig_MergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	data := `{
  "enabled": false,
  "repository": {"branch": "main"},
  "filters": {"exclude": ["vendor/**"]}
}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Enabled {
		t.Error("Enabled = true, expected false")
	}
	if cfg.Repository.Branch != "main" {
		t.Errorf("Branch = %q, expected main", cfg.Repository.Branch)
	}
	if cfg.Repository.HeadRef != "HEAD" {
		t.Errorf("HeadRef = %q, expected default HEAD", cfg.Repository.HeadRef)
	}
	if len(cfg.Filters.Exclude) != 1 || cfg.Filters.Exclude[0] != "vendor/**" {
		t.Errorf("Exclude = %v", cfg.Filters.Exclude)
	}
	if cfg.Store.LockTTLSeconds != 600 {
		t.Errorf("LockTTLSeconds = %d, expected default 600", cfg.Store.LockTTLSeconds)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	cfg.Repository.ID = "my-repo"
	cfg.Display.RevisionFamily = "generic"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Repository.ID != "my-repo" || loaded.Display.RevisionFamily != "generic" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestConfig_RepositoryID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Repository.ID = "explicit"
	if got := cfg.RepositoryID(); got != "explicit" {
		t.Errorf("RepositoryID() = %q, expected explicit", got)
	}

	dir := t.TempDir()
	cfg.Repository.ID = ""
	cfg.Repository.Path = dir
	if got := cfg.RepositoryID(); got != dir {
		t.Errorf("RepositoryID() = %q, expected %q", got, dir)
	}
}
