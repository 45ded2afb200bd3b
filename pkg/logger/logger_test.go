package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		expected string
	}{
		{"DEBUG level", DEBUG, "DEBUG"},
		{"INFO level", INFO, "INFO"},
		{"WARN level", WARN, "WARN"},
		{"ERROR level", ERROR, "ERROR"},
		{"Unknown level", LogLevel(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.level.String()
			if result != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  LogLevel
		wantError bool
	}{
		{"Parse DEBUG", "DEBUG", DEBUG, false},
		{"Parse debug lowercase", "debug", DEBUG, false},
		{"Parse INFO", "INFO", INFO, false},
		{"Parse WARN", "WARN", WARN, false},
		{"Parse WARNING", "WARNING", WARN, false},
		{"Parse ERROR", "ERROR", ERROR, false},
		{"Parse invalid", "INVALID", INFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ParseLevel() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && result != tt.expected {
				t.Errorf("ParseLevel() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logger := New()

	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.level != INFO {
		t.Errorf("Default level = %v, want %v", logger.level, INFO)
	}
	if logger.component != "" {
		t.Errorf("Default component = %v, want empty string", logger.component)
	}
	if logger.format != "text" {
		t.Errorf("Default format = %v, want text", logger.format)
	}
}

func TestLogger_WithFields(t *testing.T) {
	logger := New()

	newLogger := logger.WithFields("key1", "value1", "key2", 123, "key3", true)

	if newLogger == logger {
		t.Error("WithFields should return new logger instance")
	}
	if len(newLogger.fields) != 3 {
		t.Errorf("Expected 3 fields, got %d", len(newLogger.fields))
	}
	if len(logger.fields) != 0 {
		t.Error("WithFields should not modify the parent logger")
	}

	// odd number of arguments drops the dangling key
	oddLogger := logger.WithFields("key1", "value1", "key2")
	if len(oddLogger.fields) != 1 {
		t.Errorf("Expected 1 field with odd args, got %d", len(oddLogger.fields))
	}
}

func TestLogger_WithFieldComponent(t *testing.T) {
	logger := New().WithField("sample", "s1")
	componentLogger := logger.WithField("component", "sample-parser")

	if componentLogger.Component() != "sample-parser" {
		t.Errorf("Component() = %v, want sample-parser", componentLogger.Component())
	}
	if _, ok := componentLogger.fields["component"]; ok {
		t.Error("component should not be stored as a regular field")
	}
	if componentLogger.fields["sample"] != "s1" {
		t.Error("WithField(component) should preserve existing fields")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(Config{
		Level:  INFO,
		Output: &buf,
	})

	logger.Debug("debug message")
	if buf.Len() > 0 {
		t.Error("DEBUG message logged when level is INFO")
	}

	for _, logFn := range []func(string, ...interface{}){logger.Info, logger.Warn, logger.Error} {
		buf.Reset()
		logFn("visible message")
		if !strings.Contains(buf.String(), "visible message") {
			t.Error("message at or above INFO was not logged")
		}
	}
}

func TestLogger_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(Config{
		Level:     DEBUG,
		Output:    &buf,
		Component: "assembler",
	})

	logger.Info("parsed assembler", "zeta", "last", "alpha", 42, "args", "--meta -k 21")
	output := buf.String()

	if !strings.Contains(output, "[INFO]") {
		t.Error("Log output missing level")
	}
	if !strings.Contains(output, "[assembler]") {
		t.Error("Log output missing component")
	}
	if !strings.Contains(output, `| alpha=42 args="--meta -k 21" zeta=last`) {
		t.Errorf("fields should be sorted and quoted, got %q", output)
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(Config{
		Level:     INFO,
		Output:    &buf,
		Format:    "json",
		Component: "engine",
	})

	logger.WithField("run_id", "abc").Info("workflow started", "threads", 4, "timeout", time.Second)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("json output did not parse: %v (%q)", err, buf.String())
	}

	if entry["msg"] != "workflow started" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["component"] != "engine" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["run_id"] != "abc" {
		t.Errorf("run_id = %v", entry["run_id"])
	}
	if entry["threads"] != float64(4) {
		t.Errorf("threads = %v", entry["threads"])
	}
	if entry["timeout"] != "1s" {
		t.Errorf("timeout = %v", entry["timeout"])
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig(Config{
		Level:  ERROR,
		Output: &buf,
	})

	logger.Info("should not appear")
	if buf.Len() > 0 {
		t.Error("INFO logged when level is ERROR")
	}

	logger.SetLevel(INFO)
	buf.Reset()
	logger.Info("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Error("INFO not logged after level changed to INFO")
	}
	if logger.GetLevel() != INFO {
		t.Errorf("GetLevel() = %v, want INFO", logger.GetLevel())
	}
	if logger.IsDebugEnabled() {
		t.Error("IsDebugEnabled() should be false at INFO")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{"Simple string", "hello", "hello"},
		{"String with spaces", "hello world", `"hello world"`},
		{"String slice", []string{"a", "b"}, "[a,b]"},
		{"Integer", 42, "42"},
		{"Boolean", true, "true"},
		{"Error", testError("test error"), `"test error"`},
		{"Duration", time.Second, "1s"},
		{"Nil", nil, "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatValue(tt.value)
			if result != tt.expected {
				t.Errorf("formatValue(%v) = %v, want %v", tt.value, result, tt.expected)
			}
		})
	}
}

func TestGlobalLogger(t *testing.T) {
	previous := Global()
	defer func() { globalLogger = previous }()

	var buf bytes.Buffer
	Configure(Config{Level: DEBUG, Output: &buf})

	Debug("debug msg")
	Info("info msg")
	Warn("warn msg")
	Error("error msg")

	output := buf.String()
	for _, msg := range []string{"debug msg", "info msg", "warn msg", "error msg"} {
		if !strings.Contains(output, msg) {
			t.Errorf("global logger output missing %q", msg)
		}
	}

	if WithFields("key", "value") == nil {
		t.Error("WithFields returned nil")
	}
	if WithField("component", "cli").Component() != "cli" {
		t.Error("WithField(component) on global logger should set the component")
	}

	SetLevel(ERROR)
	buf.Reset()
	Info("hidden")
	if buf.Len() > 0 {
		t.Error("global SetLevel was not applied")
	}
}

type testError string

func (e testError) Error() string {
	return string(e)
}
