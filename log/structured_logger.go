package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Level represents the minimum log level
type Level slog.Level

// Available log levels
const (
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// Format selects the output encoding of a StructuredLogger.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// FormatFromString converts a string to a Format, defaulting to text.
func FormatFromString(value string) Format {
	if strings.EqualFold(value, string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}

// Options configures NewWithOptions.
type Options struct {
	Level  Level
	Format Format
	// Output defaults to os.Stdout.
	Output io.Writer
}

// StructuredLogger implements the Logger interface using slog
type StructuredLogger struct {
	logger *slog.Logger
}

// New returns a text StructuredLogger writing to stdout.
func New(level Level) *StructuredLogger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions returns a StructuredLogger. Text output goes through tint
// and is coloured only when the output is a terminal.
func NewWithOptions(opts Options) *StructuredLogger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	var handler slog.Handler
	switch opts.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: slog.Level(opts.Level),
		})
	default:
		handler = tint.NewHandler(out, &tint.Options{
			NoColor:    !isTerminal(out),
			TimeFormat: time.DateTime,
			Level:      slog.Level(opts.Level),
		})
	}
	return &StructuredLogger{logger: slog.New(handler)}
}

func (l *StructuredLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, withCaller(args...)...)
}

func (l *StructuredLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, withCaller(args...)...)
}

func (l *StructuredLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, withCaller(args...)...)
}

func (l *StructuredLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, withCaller(args...)...)
}

func (l *StructuredLogger) With(args ...any) Logger {
	return &StructuredLogger{logger: l.logger.With(args...)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

func withCaller(args ...any) []any {
	const callerSkip = 2 // Skip withCaller and the logging function
	if _, file, line, ok := runtime.Caller(callerSkip); ok {
		caller := formatCaller(file, line)
		return append([]any{"caller", caller}, args...)
	}
	return args
}

func formatCaller(file string, line int) string {
	// Take the last two path components for readability
	parts := strings.Split(file, "/")
	switch len(parts) {
	case 0:
		return "unknown"
	case 1:
		return fmt.Sprintf("%s:%d", parts[0], line)
	default:
		return fmt.Sprintf("%s/%s:%d",
			parts[len(parts)-2],
			parts[len(parts)-1],
			line)
	}
}
