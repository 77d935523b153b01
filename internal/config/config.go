// Package config provides configuration for formstore.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the formstore configuration.
type Config struct {
	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Storage holds where table definitions are read from
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Store holds the SQLite database locations
	Store StoreConfig `json:"store" yaml:"store"`

	// Definitions holds the layout of table definitions in storage
	Definitions DefinitionsConfig `json:"definitions" yaml:"definitions"`

	// Translation holds query translation settings
	Translation TranslationConfig `json:"translation" yaml:"translation"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (MinIO)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// StoreConfig holds the database paths.
type StoreConfig struct {
	// DatabasePath is the row store database
	DatabasePath string `json:"database_path" yaml:"database_path"`

	// KVDatabasePath is the legacy key/value store database
	KVDatabasePath string `json:"kv_database_path" yaml:"kv_database_path"`
}

// DefinitionsConfig holds where table definitions live.
type DefinitionsConfig struct {
	// Prefix is the object path prefix of table definition directories
	Prefix string `json:"prefix" yaml:"prefix"`
}

// TranslationConfig holds query translation settings.
type TranslationConfig struct {
	// StatsWindow is how long path resolution statistics are kept
	StatsWindow time.Duration `json:"stats_window" yaml:"stats_window"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "./data/formstore",
		LogLevel: "info",
		Storage: StorageConfig{
			Type: "local",
			Path: "",
		},
		Definitions: DefinitionsConfig{
			Prefix: "definitions",
		},
		Translation: TranslationConfig{
			StatsWindow: time.Hour,
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/formstore"
	}

	// Resolve storage path
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}

	// Resolve database paths
	if c.Store.DatabasePath == "" {
		c.Store.DatabasePath = filepath.Join(c.DataDir, "rows.db")
	}
	if c.Store.KVDatabasePath == "" {
		c.Store.KVDatabasePath = filepath.Join(c.DataDir, "kv.db")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	if strings.Contains(c.Definitions.Prefix, "..") {
		return fmt.Errorf("definitions.prefix must not contain '..', got %q", c.Definitions.Prefix)
	}

	if c.Translation.StatsWindow < 0 {
		return fmt.Errorf("translation.stats_window must not be negative, got %s", c.Translation.StatsWindow)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the FORMSTORE_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("FORMSTORE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FORMSTORE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// Storage configuration
	if v := os.Getenv("FORMSTORE_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("FORMSTORE_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("FORMSTORE_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("FORMSTORE_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("FORMSTORE_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("FORMSTORE_S3_USE_PATH_STYLE"); v != "" {
		cfg.Storage.S3.UsePathStyle = v == "true" || v == "1"
	}

	// Database configuration
	if v := os.Getenv("FORMSTORE_DATABASE_PATH"); v != "" {
		cfg.Store.DatabasePath = v
	}
	if v := os.Getenv("FORMSTORE_KV_DATABASE_PATH"); v != "" {
		cfg.Store.KVDatabasePath = v
	}

	if v := os.Getenv("FORMSTORE_DEFINITIONS_PREFIX"); v != "" {
		cfg.Definitions.Prefix = v
	}
	if v := os.Getenv("FORMSTORE_TRANSLATION_STATS_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Translation.StatsWindow = d
		}
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		filepath.Dir(c.Store.DatabasePath),
		filepath.Dir(c.Store.KVDatabasePath),
	}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
