package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	return [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}[l]
}

// ParseLevel converts a level name into a LogLevel, defaulting to INFO.
func ParseLevel(name string) LogLevel {
	switch name {
	case "DEBUG", "debug":
		return DEBUG
	case "WARN", "warn":
		return WARN
	case "ERROR", "error":
		return ERROR
	case "FATAL", "fatal":
		return FATAL
	default:
		return INFO
	}
}

// Logger is a structured logger writing either JSON or plain text lines.
type Logger struct {
	level      LogLevel
	writer     io.Writer
	structured bool
}

type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

var defaultLogger = New(INFO, os.Stdout, false)

// New creates a new logger instance
func New(level LogLevel, writer io.Writer, structured bool) *Logger {
	return &Logger{level: level, writer: writer, structured: structured}
}

// SetDefault sets the package-level default logger
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Log logs a message with the given level, optional error and fields
func (l *Logger) Log(level LogLevel, message string, err error, fields map[string]interface{}) {
	if level < l.level {
		return
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		Fields:    fields,
	}
	if err != nil {
		e.Error = err.Error()
	}

	if l.structured {
		data, _ := json.Marshal(e)
		fmt.Fprintln(l.writer, string(data))
		return
	}

	msg := fmt.Sprintf("[%s] %s: %s", e.Timestamp, e.Level, e.Message)
	if len(e.Fields) > 0 {
		msg += fmt.Sprintf(" %+v", e.Fields)
	}
	if e.Error != "" {
		msg += fmt.Sprintf(" error=%s", e.Error)
	}
	fmt.Fprintln(l.writer, msg)
}

// Convenience methods for the default logger

func Debug(message string, fields map[string]interface{}) {
	defaultLogger.Log(DEBUG, message, nil, fields)
}

func Info(message string, fields map[string]interface{}) {
	defaultLogger.Log(INFO, message, nil, fields)
}

func Warn(message string, fields map[string]interface{}) {
	defaultLogger.Log(WARN, message, nil, fields)
}

func Error(message string, err error, fields map[string]interface{}) {
	defaultLogger.Log(ERROR, message, err, fields)
}

func Fatal(message string, err error, fields map[string]interface{}) {
	defaultLogger.Log(FATAL, message, err, fields)
	os.Exit(1)
}
