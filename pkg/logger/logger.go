// Package logger provides structured logging utilities
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log entry
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// Config holds logger configuration
type Config struct {
	Level      string `yaml:"level"`       // debug, info, warn, error, fatal
	Format     string `yaml:"format"`      // text or json
	Output     string `yaml:"output"`      // stdout, stderr, discard, or file path
	TimeFormat string `yaml:"time_format"` // RFC3339, RFC3339Nano, etc
}

var (
	mu                sync.RWMutex
	currentLevel      = LevelInfo
	currentFormat     = "text"
	currentTimeFormat = time.RFC3339
	infoLog           = log.New(os.Stdout, "", 0)
	errorLog          = log.New(os.Stderr, "", 0)
)

// ParseLevel maps a config string to a level, defaulting to info
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Init initializes the logger with configuration
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	currentLevel = ParseLevel(cfg.Level)

	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		currentFormat = "json"
	} else {
		currentFormat = "text"
	}

	if tf := strings.TrimSpace(cfg.TimeFormat); tf != "" {
		currentTimeFormat = tf
	}

	switch out := strings.TrimSpace(cfg.Output); strings.ToLower(out) {
	case "", "stdout":
		infoLog.SetOutput(os.Stdout)
		errorLog.SetOutput(os.Stderr)
	case "stderr":
		infoLog.SetOutput(os.Stderr)
		errorLog.SetOutput(os.Stderr)
	case "discard":
		infoLog.SetOutput(io.Discard)
		errorLog.SetOutput(io.Discard)
	default:
		f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			infoLog.SetOutput(os.Stdout)
			errorLog.SetOutput(os.Stderr)
			infoLog.Printf("logger: failed to open log file %s: %v", out, err)
			return
		}
		infoLog.SetOutput(f)
		errorLog.SetOutput(f)
	}
}

// SetOutput redirects every level to w (tests, TUI log files)
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	infoLog.SetOutput(w)
	errorLog.SetOutput(w)
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	File      string                 `json:"file,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// logMessage handles the actual logging
func logMessage(level LogLevel, msg string, fields map[string]interface{}) {
	mu.RLock()
	defer mu.RUnlock()

	if level < currentLevel {
		return
	}

	// Get caller info
	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = fmt.Sprintf("%s:%d", file[strings.LastIndex(file, "/")+1:], line)
	}

	var component string
	if v, ok := fields["component"].(string); ok {
		component = v
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(currentTimeFormat),
		Level:     level.String(),
		Message:   msg,
		Component: component,
		File:      file,
		Fields:    fields,
	}

	var output string
	if currentFormat == "json" {
		data, err := json.Marshal(entry)
		if err != nil {
			output = fmt.Sprintf("%s [%s] %s", entry.Timestamp, entry.Level, entry.Message)
		} else {
			output = string(data)
		}
	} else {
		output = fmt.Sprintf("%s [%s] %s", entry.Timestamp, entry.Level, entry.Message)
		if entry.File != "" {
			output += fmt.Sprintf(" (%s)", entry.File)
		}
		if len(entry.Fields) > 0 {
			output += fmt.Sprintf(" %v", entry.Fields)
		}
	}

	if level >= LevelError {
		errorLog.Println(output)
	} else {
		infoLog.Println(output)
	}

	if level == LevelFatal {
		os.Exit(1)
	}
}

// Debug logs debug message (only shown when level=debug)
func Debug(msg string) {
	logMessage(LevelDebug, msg, nil)
}

// Debugf logs formatted debug message
func Debugf(format string, args ...interface{}) {
	logMessage(LevelDebug, fmt.Sprintf(format, args...), nil)
}

// Info logs info message
func Info(msg string) {
	logMessage(LevelInfo, msg, nil)
}

// Infof logs formatted info message
func Infof(format string, args ...interface{}) {
	logMessage(LevelInfo, fmt.Sprintf(format, args...), nil)
}

// Warn logs warning message
func Warn(msg string) {
	logMessage(LevelWarn, msg, nil)
}

// Warnf logs formatted warning message
func Warnf(format string, args ...interface{}) {
	logMessage(LevelWarn, fmt.Sprintf(format, args...), nil)
}

// Error logs error message
func Error(msg string) {
	logMessage(LevelError, msg, nil)
}

// Errorf logs formatted error message
func Errorf(format string, args ...interface{}) {
	logMessage(LevelError, fmt.Sprintf(format, args...), nil)
}

// Fatalf logs formatted fatal message and exits
func Fatalf(format string, args ...interface{}) {
	logMessage(LevelFatal, fmt.Sprintf(format, args...), nil)
}

// WithFields returns a log message with structured fields
func WithFields(fields map[string]interface{}) *FieldLogger {
	return &FieldLogger{fields: fields}
}

// FieldLogger allows structured logging with fields
type FieldLogger struct {
	fields map[string]interface{}
}

func (l *FieldLogger) Debug(msg string) {
	logMessage(LevelDebug, msg, l.fields)
}

func (l *FieldLogger) Info(msg string) {
	logMessage(LevelInfo, msg, l.fields)
}

func (l *FieldLogger) Warn(msg string) {
	logMessage(LevelWarn, msg, l.fields)
}

func (l *FieldLogger) Error(msg string) {
	logMessage(LevelError, msg, l.fields)
}

// Component-specific logging with structured fields

// HTTP logs an API request
func HTTP(method, path string, status, latencyMs int) {
	WithFields(map[string]interface{}{
		"component": "http",
		"method":    method,
		"path":      path,
		"status":    status,
		"latency":   latencyMs,
	}).Info(fmt.Sprintf("HTTP %s %s %d - %dms", method, path, status, latencyMs))
}

// Store logs a store call; failed calls are logged at warn level
func Store(op, path string, latency time.Duration, err error) {
	fields := map[string]interface{}{
		"component": "store",
		"op":        op,
		"path":      path,
		"latency":   latency.Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		WithFields(fields).Warn(fmt.Sprintf("store %s %s failed", op, path))
		return
	}
	WithFields(fields).Debug(fmt.Sprintf("store %s %s - %dms", op, path, latency.Milliseconds()))
}

// Forum logs a forum-level event (question posted, reply posted, ...)
func Forum(event, id string, fields map[string]interface{}) {
	all := map[string]interface{}{
		"component": "forum",
		"event":     event,
		"id":        id,
	}
	for k, v := range fields {
		all[k] = v
	}
	WithFields(all).Info(fmt.Sprintf("forum %s %s", event, id))
}

// WebSocket logs listener stream activity
func WebSocket(path, event string, userID string) {
	WithFields(map[string]interface{}{
		"component": "websocket",
		"path":      path,
		"event":     event,
		"user_id":   userID,
	}).Info(fmt.Sprintf("WebSocket [%s] %s", path, event))
}
