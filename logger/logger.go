package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Formats accepted in Config.Format.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Logger is a zerolog logger tagged with the service name. Its methods take
// optional field maps built with Fields.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// New creates a logger for cfg. An unusable log file falls back to stderr
// with a warning, so logging never stops the process.
func New(cfg *Config, serviceName string) *Logger {
	w, err := openOutput(cfg)
	l := NewWithWriter(cfg, serviceName, w)
	if err != nil {
		l.Warn("log file unavailable, using stderr", Fields("file", cfg.File, FieldError, err.Error()))
	}
	return l
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(cfg *Config, serviceName string, w io.Writer) *Logger {
	if cfg.Format == FormatConsole {
		w = consoleWriter(w, cfg.NoColor)
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if serviceName != "" {
		ctx = ctx.Str("service", serviceName)
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return &Logger{zl: ctx.Logger(), service: serviceName}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// WithComponent returns a child logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.WithFields(Fields(FieldComponent, name))
}

// WithFields returns a child logger carrying fields on every record.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zl.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger(), service: l.service}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	write(l.zl.Debug(), msg, fields)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	write(l.zl.Info(), msg, fields)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	write(l.zl.Warn(), msg, fields)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	write(l.zl.Error(), msg, fields)
}

func write(event *zerolog.Event, msg string, fields []map[string]interface{}) {
	if event == nil {
		return
	}
	for _, m := range fields {
		for k, v := range m {
			event.Interface(k, v)
		}
	}
	event.Msg(msg)
}

func openOutput(cfg *Config) (io.Writer, error) {
	switch cfg.Output {
	case OutputStdout:
		return os.Stdout, nil
	case OutputFile:
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return os.Stderr, err
		}
		return f, nil
	default:
		return os.Stderr, nil
	}
}

func consoleWriter(w io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: "15:04:05",
		FormatLevel: func(i interface{}) string {
			lvl := strings.ToUpper(fmt.Sprint(i))
			if len(lvl) > 3 {
				lvl = lvl[:3]
			}
			return "[" + lvl + "]"
		},
		FormatFieldName: func(i interface{}) string { return fmt.Sprint(i) + ":" },
	}
}
