package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatPretty  = "pretty"
)

// Logger is a zerolog logger scoped to a suite, a component or a fixture.
// Loggers are immutable; the With methods return children.
type Logger struct {
	zl zerolog.Logger
}

// New builds the logger of the suite named suite. Every line it writes
// carries the suite name.
func New(cfg *Config, suite string) *Logger {
	return NewWithWriter(cfg, suite, sink(cfg.Output))
}

// NewWithWriter is New writing to w. Tests use it to capture cleanup
// warnings.
func NewWithWriter(cfg *Config, suite string, w io.Writer) *Logger {
	var zl zerolog.Logger
	if isConsole(cfg.Format) {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: cfg.NoColor, TimeFormat: "15:04:05"})
	} else {
		zl = zerolog.New(w)
	}

	zc := zl.Level(parseLevel(cfg.Level)).With()
	if suite != "" {
		zc = zc.Str(FieldSuite, suite)
	}
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		// skip Logger.<level> and emit
		zc = zc.CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 2)
	}
	return &Logger{zl: zc.Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// WithComponent returns a child tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str(FieldComponent, name).Logger()}
}

// WithFields returns a child that adds fields to every line.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Error(), msg, fields)
}

// emit is a no-op for disabled levels, where zerolog hands out a nil event.
func emit(event *zerolog.Event, msg string, fields []map[string]interface{}) {
	if event == nil {
		return
	}
	for _, f := range fields {
		event.Fields(f)
	}
	event.Msg(msg)
}

// --- process-wide fallback ---

var global atomic.Pointer[Logger]

// Global returns the logger used by code that was given none: warnings on
// stderr in console format.
func Global() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	cfg := &Config{Level: "warn", Format: FormatConsole, Output: "stderr", Timestamp: true}
	global.CompareAndSwap(nil, New(cfg, ""))
	return global.Load()
}

// SetGlobal replaces the fallback logger. A nil l restores the default.
func SetGlobal(l *Logger) {
	global.Store(l)
}

// Info logs through the fallback logger.
func Info(msg string, fields ...map[string]interface{}) {
	Global().Info(msg, fields...)
}

// Warn logs through the fallback logger.
func Warn(msg string, fields ...map[string]interface{}) {
	Global().Warn(msg, fields...)
}

func parseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return parsed
}

func isConsole(format string) bool {
	f := strings.ToLower(format)
	return f == FormatConsole || f == FormatPretty
}

func sink(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stderr":
		return os.Stderr
	case "discard", "none":
		return io.Discard
	default:
		return os.Stdout
	}
}
