package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Store.DatabasePath != filepath.Join(cfg.DataDir, "rows.db") {
		t.Errorf("unexpected database path %q", cfg.Store.DatabasePath)
	}
	if cfg.Store.KVDatabasePath != filepath.Join(cfg.DataDir, "kv.db") {
		t.Errorf("unexpected kv database path %q", cfg.Store.KVDatabasePath)
	}
	if cfg.Storage.Path != filepath.Join(cfg.DataDir, "storage") {
		t.Errorf("unexpected storage path %q", cfg.Storage.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }},
		{"bad storage type", func(c *Config) { c.Storage.Type = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }},
		{"escaping prefix", func(c *Config) { c.Definitions.Prefix = "../defs" }},
		{"negative window", func(c *Config) { c.Translation.StatsWindow = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Resolve()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formstore.yaml")
	content := `
data_dir: /var/lib/formstore
log_level: debug
storage:
  type: s3
  s3:
    bucket: forms
    region: eu-west-1
    use_path_style: true
definitions:
  prefix: tables
translation:
  stats_window: 30m
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.DataDir != "/var/lib/formstore" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected top-level values: %+v", cfg)
	}
	if cfg.Storage.Type != "s3" || cfg.Storage.S3.Bucket != "forms" || !cfg.Storage.S3.UsePathStyle {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Definitions.Prefix != "tables" {
		t.Errorf("unexpected prefix %q", cfg.Definitions.Prefix)
	}
	if cfg.Translation.StatsWindow != 30*time.Minute {
		t.Errorf("unexpected stats window %s", cfg.Translation.StatsWindow)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should be valid: %v", err)
	}
}

func TestLoadFromFile_JSONKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formstore.json")
	if err := os.WriteFile(path, []byte(`{"log_level": "warn"}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected warn, got %q", cfg.LogLevel)
	}
	if cfg.Definitions.Prefix != "definitions" || cfg.Storage.Type != "local" {
		t.Errorf("defaults were lost: %+v", cfg)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	toml := filepath.Join(dir, "formstore.toml")
	if err := os.WriteFile(toml, []byte("a = 1"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFromFile(toml); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FORMSTORE_DATA_DIR", "/tmp/fs")
	t.Setenv("FORMSTORE_STORAGE_TYPE", "s3")
	t.Setenv("FORMSTORE_S3_BUCKET", "bucket")
	t.Setenv("FORMSTORE_S3_USE_PATH_STYLE", "1")
	t.Setenv("FORMSTORE_DATABASE_PATH", "/tmp/fs/other.db")
	t.Setenv("FORMSTORE_TRANSLATION_STATS_WINDOW", "5m")
	t.Setenv("FORMSTORE_DEFINITIONS_PREFIX", "defs")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)
	cfg.Resolve()

	if cfg.DataDir != "/tmp/fs" || cfg.Storage.Type != "s3" || cfg.Storage.S3.Bucket != "bucket" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if !cfg.Storage.S3.UsePathStyle {
		t.Error("expected path style from env")
	}
	if cfg.Store.DatabasePath != "/tmp/fs/other.db" {
		t.Errorf("unexpected database path %q", cfg.Store.DatabasePath)
	}
	if cfg.Store.KVDatabasePath != filepath.Join("/tmp/fs", "kv.db") {
		t.Errorf("unexpected kv path %q", cfg.Store.KVDatabasePath)
	}
	if cfg.Translation.StatsWindow != 5*time.Minute || cfg.Definitions.Prefix != "defs" {
		t.Errorf("unexpected translation/definitions config: %+v", cfg)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Resolve()
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.DataDir, cfg.Storage.Path} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", dir)
		}
	}
}
