package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

type Logger struct {
	level     LogLevel
	logger    *log.Logger
	fields    map[string]interface{}
	component string
	format    string
}

type Config struct {
	Level     LogLevel
	Output    io.Writer
	Format    string // "json" or "text" (default)
	Component string
}

// New returns an INFO logger writing text lines to stderr.
// Stdout is left to command output.
func New() *Logger {
	return NewWithConfig(Config{
		Level:  INFO,
		Output: os.Stderr,
		Format: "text",
	})
}

func NewWithConfig(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	if config.Format == "" {
		config.Format = "text"
	}

	return &Logger{
		level:     config.Level,
		logger:    log.New(config.Output, "", 0),
		fields:    make(map[string]interface{}),
		component: config.Component,
		format:    config.Format,
	}
}

func (l *Logger) clone() *Logger {
	newLogger := &Logger{
		level:     l.level,
		logger:    l.logger,
		fields:    make(map[string]interface{}, len(l.fields)),
		component: l.component,
		format:    l.format,
	}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

func (l *Logger) WithFields(keyVals ...interface{}) *Logger {
	newLogger := l.clone()
	for i := 0; i+1 < len(keyVals); i += 2 {
		key := fmt.Sprintf("%v", keyVals[i])
		newLogger.fields[key] = keyVals[i+1]
	}
	return newLogger
}

// WithField creates a new logger that includes an extra bit of context.
// The "component" key is special: it becomes the bracketed tag of each line.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	if key == "component" {
		return l.WithComponent(fmt.Sprintf("%v", value))
	}
	return l.WithFields(key, value)
}

// WithComponent creates a new logger tagged with the given component name
func (l *Logger) WithComponent(component string) *Logger {
	newLogger := l.clone()
	newLogger.component = component
	return newLogger
}

func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) Debug(msg string, keyVals ...interface{}) {
	l.log(DEBUG, msg, keyVals...)
}

func (l *Logger) Info(msg string, kv ...interface{}) {
	l.log(INFO, msg, kv...)
}

func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.log(WARN, msg, kv...)
}

func (l *Logger) Error(msg string, kv ...interface{}) {
	l.log(ERROR, msg, kv...)
}

func (l *Logger) log(level LogLevel, msg string, kv ...interface{}) {
	if level < l.level {
		return
	}

	timestamp := time.Now().Format(timestampFormat)

	allFields := make(map[string]interface{}, len(l.fields)+len(kv)/2)
	for k, v := range l.fields {
		allFields[k] = v
	}

	// key/vals from this specific log call
	for i := 0; i+1 < len(kv); i += 2 {
		key := fmt.Sprintf("%v", kv[i])
		allFields[key] = kv[i+1]
	}

	var logLine string
	if l.format == "json" {
		logLine = l.formatJSONLine(timestamp, level, msg, allFields)
	} else {
		logLine = l.formatLogLine(timestamp, level, msg, allFields)
	}

	l.logger.Print(logLine)
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l *Logger) formatLogLine(timestamp string, level LogLevel, msg string, fields map[string]interface{}) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s]", timestamp))
	parts = append(parts, fmt.Sprintf("[%s]", level.String()))

	if l.component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", l.component))
	}

	parts = append(parts, msg)

	if len(fields) > 0 {
		fieldParts := make([]string, 0, len(fields))
		for _, key := range sortedKeys(fields) {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", key, formatValue(fields[key])))
		}
		parts = append(parts, fmt.Sprintf("| %s", strings.Join(fieldParts, " ")))
	}

	return strings.Join(parts, " ")
}

func (l *Logger) formatJSONLine(timestamp string, level LogLevel, msg string, fields map[string]interface{}) string {
	entry := make(map[string]interface{}, len(fields)+4)
	for k, v := range fields {
		switch val := v.(type) {
		case error:
			entry[k] = val.Error()
		case time.Duration:
			entry[k] = val.String()
		default:
			entry[k] = val
		}
	}
	entry["time"] = timestamp
	entry["level"] = level.String()
	entry["msg"] = msg
	if l.component != "" {
		entry["component"] = l.component
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return l.formatLogLine(timestamp, level, msg, fields)
	}
	return string(data)
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		// Quote strings that contain spaces
		if strings.Contains(v, " ") {
			return fmt.Sprintf(`"%s"`, v)
		}
		return v
	case []string:
		return fmt.Sprintf("[%s]", strings.Join(v, ","))
	case error:
		return fmt.Sprintf(`"%s"`, v.Error())
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format("2006-01-02T15:04:05Z07:00")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *Logger) GetLevel() LogLevel {
	return l.level
}

func (l *Logger) IsDebugEnabled() bool {
	return l.level <= DEBUG
}

// global logger instance for the convenience
var globalLogger = New()

// Configure replaces the global logger. Loggers derived earlier keep their old settings.
func Configure(config Config) {
	globalLogger = NewWithConfig(config)
}

// Global returns the current global logger
func Global() *Logger {
	return globalLogger
}

func Debug(msg string, keyvals ...interface{}) {
	globalLogger.Debug(msg, keyvals...)
}

func Info(msg string, keyvals ...interface{}) {
	globalLogger.Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	globalLogger.Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	globalLogger.Error(msg, keyvals...)
}

func WithFields(keyvals ...interface{}) *Logger {
	return globalLogger.WithFields(keyvals...)
}

func WithField(key string, value interface{}) *Logger {
	return globalLogger.WithField(key, value)
}

func SetLevel(level LogLevel) {
	globalLogger.SetLevel(level)
}

func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level: %s", level)
	}
}
