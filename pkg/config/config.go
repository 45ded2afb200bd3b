package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings of the yeat tool itself.
// The assembly document (samples, assemblers) is parsed separately.
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Run     RunConfig     `yaml:"run" json:"run"`
	Engine  EngineConfig  `yaml:"engine" json:"engine"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// RunConfig holds defaults for a single workflow invocation
type RunConfig struct {
	Threads   int    `yaml:"threads" json:"threads"`
	WorkDir   string `yaml:"workdir" json:"workdir"`
	DryRun    bool   `yaml:"dry_run" json:"dry_run"`
	CopyInput bool   `yaml:"copy_input" json:"copy_input"`
	Seed      int    `yaml:"seed" json:"seed"` // 0 picks a random seed per run
}

// EngineConfig locates the external workflow engine
type EngineConfig struct {
	Binary    string `yaml:"binary" json:"binary"`
	Snakefile string `yaml:"snakefile" json:"snakefile"`
	UseConda  bool   `yaml:"use_conda" json:"use_conda"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MaxSeed is the largest accepted random seed
const MaxSeed = 65535

// DefaultConfig provides default configuration values
var DefaultConfig = Config{
	Version: "1.0",
	Run: RunConfig{
		Threads: 1,
		WorkDir: ".",
	},
	Engine: EngineConfig{
		Binary:    "snakemake",
		Snakefile: "",
		UseConda:  true,
	},
	Logging: LoggingConfig{
		Level:  "INFO",
		Format: "text",
	},
}

const builtInDefaults = "built-in defaults (no config file found)"

// LoadConfig loads yeat settings from file and environment variables.
// An explicit path must exist. Otherwise the first file found is used:
//  1. Path specified in YEAT_CONFIG_PATH environment variable
//  2. ./yeat-config.yml
//  3. ./config/yeat-config.yml
//  4. ~/.yeat/yeat-config.yml
//  5. /etc/yeat/yeat-config.yml
//
// Returns (config, configPath, error) - configPath indicates source of configuration.
func LoadConfig(path string) (*Config, string, error) {
	config := DefaultConfig

	source, err := loadFromFile(&config, path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config file: %w", err)
	}

	if err := applyEnv(&config); err != nil {
		return nil, "", err
	}

	if e := config.Validate(); e != nil {
		return nil, "", fmt.Errorf("configuration validation failed: %w", e)
	}

	return &config, source, nil
}

func searchPaths() []string {
	paths := []string{
		os.Getenv("YEAT_CONFIG_PATH"),
		"./yeat-config.yml",
		"./config/yeat-config.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".yeat", "yeat-config.yml"))
	}
	return append(paths, "/etc/yeat/yeat-config.yml")
}

func loadFromFile(config *Config, explicit string) (string, error) {
	if explicit != "" {
		if err := readInto(config, explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}

	for _, path := range searchPaths() {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := readInto(config, path); err != nil {
			return "", err
		}
		return path, nil
	}

	return builtInDefaults, nil
}

func readInto(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(config *Config) error {
	if val := os.Getenv("YEAT_THREADS"); val != "" {
		threads, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid YEAT_THREADS %q: %w", val, err)
		}
		config.Run.Threads = threads
	}
	if val := os.Getenv("YEAT_WORKDIR"); val != "" {
		config.Run.WorkDir = val
	}
	if val := os.Getenv("YEAT_LOG_LEVEL"); val != "" {
		config.Logging.Level = val
	}
	if val := os.Getenv("YEAT_LOG_FORMAT"); val != "" {
		config.Logging.Format = val
	}
	if val := os.Getenv("YEAT_SNAKEMAKE"); val != "" {
		config.Engine.Binary = val
	}
	if val := os.Getenv("YEAT_SNAKEFILE"); val != "" {
		config.Engine.Snakefile = val
	}
	return nil
}

// Validate checks thread count, seed range, engine binary and logging settings.
// Returns error describing the first validation failure found.
func (c *Config) Validate() error {
	if c.Run.Threads < 1 {
		return fmt.Errorf("invalid thread count: %d", c.Run.Threads)
	}

	if c.Run.Seed < 0 || c.Run.Seed > MaxSeed {
		return fmt.Errorf("invalid seed: %d (must be between 1 and %d, or 0 for random)", c.Run.Seed, MaxSeed)
	}

	if c.Run.WorkDir == "" {
		return fmt.Errorf("working directory must not be empty")
	}

	if c.Engine.Binary == "" {
		return fmt.Errorf("workflow engine binary must not be empty")
	}

	validLevels := map[string]bool{
		"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true,
	}
	if !validLevels[strings.ToUpper(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}
