package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	if DefaultConfig.Run.Threads != 1 {
		t.Errorf("Expected 1 default thread, got %d", DefaultConfig.Run.Threads)
	}

	if DefaultConfig.Engine.Binary != "snakemake" {
		t.Errorf("Expected default engine snakemake, got %s", DefaultConfig.Engine.Binary)
	}

	if err := DefaultConfig.Validate(); err != nil {
		t.Errorf("DefaultConfig should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func(mutate func(*Config)) Config {
		c := DefaultConfig
		mutate(&c)
		return c
	}

	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			config:  DefaultConfig,
			wantErr: false,
		},
		{
			name:    "zero threads",
			config:  valid(func(c *Config) { c.Run.Threads = 0 }),
			wantErr: true,
			errMsg:  "invalid thread count",
		},
		{
			name:    "seed too high",
			config:  valid(func(c *Config) { c.Run.Seed = MaxSeed + 1 }),
			wantErr: true,
			errMsg:  "invalid seed",
		},
		{
			name:    "max seed accepted",
			config:  valid(func(c *Config) { c.Run.Seed = MaxSeed }),
			wantErr: false,
		},
		{
			name:    "empty workdir",
			config:  valid(func(c *Config) { c.Run.WorkDir = "" }),
			wantErr: true,
			errMsg:  "working directory",
		},
		{
			name:    "empty engine binary",
			config:  valid(func(c *Config) { c.Engine.Binary = "" }),
			wantErr: true,
			errMsg:  "workflow engine binary",
		},
		{
			name:    "lowercase log level",
			config:  valid(func(c *Config) { c.Logging.Level = "debug" }),
			wantErr: false,
		},
		{
			name:    "invalid log level",
			config:  valid(func(c *Config) { c.Logging.Level = "INVALID" }),
			wantErr: true,
			errMsg:  "invalid log level",
		},
		{
			name:    "invalid log format",
			config:  valid(func(c *Config) { c.Logging.Format = "xml" }),
			wantErr: true,
			errMsg:  "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != nil && tt.errMsg != "" {
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Expected error containing '%s', got '%s'", tt.errMsg, err.Error())
				}
			}
		})
	}
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "yeat-config.yml")

	content := `
version: "1.0"
run:
  threads: 8
  workdir: /scratch/yeat
  seed: 42
engine:
  binary: /opt/snakemake/bin/snakemake
logging:
  level: DEBUG
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, source, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if source != path {
		t.Errorf("source = %s, want %s", source, path)
	}
	if config.Run.Threads != 8 {
		t.Errorf("Threads = %d, want 8", config.Run.Threads)
	}
	if config.Run.WorkDir != "/scratch/yeat" {
		t.Errorf("WorkDir = %s", config.Run.WorkDir)
	}
	if config.Run.Seed != 42 {
		t.Errorf("Seed = %d, want 42", config.Run.Seed)
	}
	if config.Engine.Binary != "/opt/snakemake/bin/snakemake" {
		t.Errorf("Binary = %s", config.Engine.Binary)
	}
	if !config.Engine.UseConda {
		t.Error("UseConda should keep its default when the file omits it")
	}
	if config.Logging.Format != "json" {
		t.Errorf("Format = %s, want json", config.Logging.Format)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("run: [unterminated"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, _, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "env.yml")
	if err := os.WriteFile(path, []byte("run:\n  threads: 2\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("YEAT_CONFIG_PATH", path)
	t.Setenv("YEAT_THREADS", "16")
	t.Setenv("YEAT_WORKDIR", "/tmp/work")
	t.Setenv("YEAT_LOG_LEVEL", "WARN")
	t.Setenv("YEAT_LOG_FORMAT", "json")
	t.Setenv("YEAT_SNAKEMAKE", "/usr/local/bin/snakemake")
	t.Setenv("YEAT_SNAKEFILE", "/opt/yeat/Snakefile")

	config, source, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if source != path {
		t.Errorf("source = %s, want %s", source, path)
	}
	if config.Run.Threads != 16 {
		t.Errorf("Threads = %d, want 16 from environment", config.Run.Threads)
	}
	if config.Run.WorkDir != "/tmp/work" {
		t.Errorf("WorkDir = %s", config.Run.WorkDir)
	}
	if config.Logging.Level != "WARN" || config.Logging.Format != "json" {
		t.Errorf("Logging = %+v", config.Logging)
	}
	if config.Engine.Binary != "/usr/local/bin/snakemake" || config.Engine.Snakefile != "/opt/yeat/Snakefile" {
		t.Errorf("Engine = %+v", config.Engine)
	}
}

func TestLoadConfig_InvalidThreadsEnv(t *testing.T) {
	t.Setenv("YEAT_CONFIG_PATH", "")
	t.Setenv("YEAT_THREADS", "many")

	_, _, err := LoadConfig("")
	if err == nil || !strings.Contains(err.Error(), "YEAT_THREADS") {
		t.Errorf("expected YEAT_THREADS error, got %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threads.yml")
	if err := os.WriteFile(path, []byte("run:\n  threads: -3\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, _, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "configuration validation failed") {
		t.Errorf("expected validation error, got %v", err)
	}
}
