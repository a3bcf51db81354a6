// Package logger provides leveled logging for prequelize, including SQL
// statement logging with execution timing.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// LogLevel defines the severity of the log
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// LogFormat defines the output format of the log
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Logger is the interface for logging SQL and internal messages.
type Logger interface {
	SetLevel(level LogLevel)
	SetFormat(format LogFormat)
	SetOutput(w io.Writer)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	SQL(sql string, duration time.Duration, args ...any)
}

// stdLogger is the default implementation of Logger.
type stdLogger struct {
	level  LogLevel
	format LogFormat
	writer io.Writer
}

// NewStdLogger creates a new standard logger writing text to stdout at
// info level.
func NewStdLogger() Logger {
	return &stdLogger{
		level:  LogLevelInfo,
		format: LogFormatText,
		writer: os.Stdout,
	}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return &stdLogger{level: LogLevelSilent, format: LogFormatText, writer: io.Discard}
}

func (l *stdLogger) SetLevel(level LogLevel) { l.level = level }
func (l *stdLogger) SetFormat(f LogFormat)   { l.format = f }
func (l *stdLogger) SetOutput(w io.Writer)   { l.writer = w }

func (l *stdLogger) Info(format string, args ...any) {
	if l.level >= LogLevelInfo {
		l.log("INFO", fmt.Sprintf(format, args...), nil)
	}
}

func (l *stdLogger) Warn(format string, args ...any) {
	if l.level >= LogLevelWarn {
		l.log("WARN", fmt.Sprintf(format, args...), nil)
	}
}

func (l *stdLogger) Error(format string, args ...any) {
	if l.level >= LogLevelError {
		l.log("ERROR", fmt.Sprintf(format, args...), nil)
	}
}

func (l *stdLogger) SQL(sql string, duration time.Duration, args ...any) {
	if l.level < LogLevelInfo {
		return
	}
	if l.format == LogFormatJSON {
		l.log("SQL", "", map[string]any{
			"sql":      sql,
			"duration": duration.String(),
			"args":     fmt.Sprintf("%v", args),
		})
		return
	}
	l.log("SQL", fmt.Sprintf("[%v] %s | args: %v", duration, sql, args), nil)
}

func (l *stdLogger) log(level, msg string, fields map[string]any) {
	now := time.Now()
	if l.format == LogFormatJSON {
		data := map[string]any{
			"time":  now.Format(time.RFC3339),
			"level": level,
		}
		if msg != "" {
			data["msg"] = msg
		}
		for k, v := range fields {
			data[k] = v
		}
		json.NewEncoder(l.writer).Encode(data)
		return
	}
	fmt.Fprintf(l.writer, "[PREQUELIZE] %s %s: %s\n", now.Format("2006-01-02 15:04:05"), level, msg)
}
