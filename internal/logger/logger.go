// Package logger provides the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

// EnvLevel overrides the configured log level when set.
const EnvLevel = "QUILL_LOG_LEVEL"

// Logger is the minimal logging surface used across the application.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Fields are structured fields attached to a single log line.
type Fields map[string]any

// Log is the global logger. It works at info level before Init is called.
var Log Logger = New(os.Stderr, "info")

// Init replaces the global logger. The QUILL_LOG_LEVEL environment variable
// wins over level; an empty result falls back to info.
func Init(level string) {
	if env := os.Getenv(EnvLevel); env != "" {
		level = env
	}
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = "info"
	}
	Log = New(os.Stderr, level)
}

// New builds a JSON logger writing to out. Logs go to stderr by default so
// command output on stdout stays machine-readable.
func New(out io.Writer, level string) Logger {
	logLevel := slog.LevelByName(level)

	var levels []slog.Level
	for _, lv := range slog.AllLevels {
		if lv <= logLevel {
			levels = append(levels, lv)
		}
	}

	h := handler.NewIOWriterHandler(out, levels)
	formatter := slog.NewJSONFormatter(func(f *slog.JSONFormatter) {
		f.Fields = []string{
			slog.FieldKeyDatetime,
			slog.FieldKeyLevel,
			slog.FieldKeyMessage,
		}
		f.Aliases = slog.StringMap{
			slog.FieldKeyDatetime: "time",
			slog.FieldKeyLevel:    "level",
			slog.FieldKeyMessage:  "msg",
		}
		f.TimeFormat = "2006-01-02T15:04:05.000Z07:00"
	})
	h.SetFormatter(formatter)

	return slog.NewWithHandlers(h)
}

func withFields(fields Fields) *slog.Record {
	lg, ok := Log.(*slog.Logger)
	if !ok {
		return nil
	}
	return lg.WithFields(slog.M(fields))
}

// InfoWithFields logs msg at info level with structured fields.
func InfoWithFields(msg string, fields Fields) {
	if r := withFields(fields); r != nil {
		r.Info(msg)
		return
	}
	Log.Info(msg)
}

func DebugWithFields(msg string, fields Fields) {
	if r := withFields(fields); r != nil {
		r.Debug(msg)
		return
	}
	Log.Debug(msg)
}

func WarnWithFields(msg string, fields Fields) {
	if r := withFields(fields); r != nil {
		r.Warn(msg)
		return
	}
	Log.Warn(msg)
}

func ErrorWithFields(msg string, fields Fields) {
	if r := withFields(fields); r != nil {
		r.Error(msg)
		return
	}
	Log.Error(msg)
}
