// Package main implements the formstore operator tool.
// It flattens and publishes table definitions, translates selection and
// order-by expressions, and reads and writes rows and key/value entries.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arkilian/formstore/internal/config"
	"github.com/arkilian/formstore/internal/observability"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Parse command line flags
	var (
		configFile  string
		dataDir     string
		logLevel    string
		storageType string
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&storageType, "storage", "", "Definition storage type: local, s3")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "formstore - schema-driven form instance storage\n\n")
		fmt.Fprintf(os.Stderr, "Usage: formstore [options] <command> [arguments]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  flatten <definition-file>                  Print the flat key map of a definition\n")
		fmt.Fprintf(os.Stderr, "  publish <table> <definition-file>          Validate and publish a table definition\n")
		fmt.Fprintf(os.Stderr, "  tables                                     Load and list every published table\n")
		fmt.Fprintf(os.Stderr, "  translate <table> <expression>             Translate a selection or order-by expression\n")
		fmt.Fprintf(os.Stderr, "  insert <table> <instance-json-file>        Insert an instance into the row store\n")
		fmt.Fprintf(os.Stderr, "  query <table> [selection] [order-by] [args...]\n")
		fmt.Fprintf(os.Stderr, "                                             Query the row store; metadata columns\n")
		fmt.Fprintf(os.Stderr, "                                             are named by key, e.g. \"_id = ?\"\n")
		fmt.Fprintf(os.Stderr, "  kv-put <table> <partition> <aspect> <key> <type> <value>\n")
		fmt.Fprintf(os.Stderr, "  kv-get <table> <partition> <aspect> <key>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  formstore flatten visits.yaml\n")
		fmt.Fprintf(os.Stderr, "  formstore publish visits visits.yaml\n")
		fmt.Fprintf(os.Stderr, "  formstore translate visits \"beneficiary_code = ?\"\n")
		fmt.Fprintf(os.Stderr, "  formstore query visits \"_id = ?\" \"\" uuid:...\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FORMSTORE_DATA_DIR       Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  FORMSTORE_LOG_LEVEL      Log level\n")
		fmt.Fprintf(os.Stderr, "  FORMSTORE_STORAGE_TYPE   Storage type (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  FORMSTORE_S3_*           S3 bucket, region, endpoint, path style\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("formstore version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := loadConfig(configFile, dataDir, logLevel, storageType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, cfg, logger, flag.Args(), os.Stdout); err != nil {
		if err == errUsage {
			flag.Usage()
			os.Exit(2)
		}
		logger.Error("command failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, dataDir, logLevel, storageType string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	// Start with defaults or load from file
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// Apply environment variables
	config.LoadFromEnv(cfg)

	// Apply command line flags (highest priority)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if storageType != "" {
		cfg.Storage.Type = storageType
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
