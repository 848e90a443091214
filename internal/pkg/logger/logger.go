package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines the interface for logging messages.
type Logger interface {
	Error(msg string, err error)
	Warn(msg string)
	Info(msg string)
	Debug(msg string)
}

// Config selects the level and output format of the logger.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console or json
}

type zeroLogger struct {
	logger zerolog.Logger
}

// New creates a logger writing to stdout.
func New(cfg Config) Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(cfg Config, w io.Writer) Logger {
	out := w
	if !strings.EqualFold(cfg.Format, "json") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
	return &zeroLogger{logger: zl}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &zeroLogger{logger: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Error logs an error message. err may be nil.
func (l *zeroLogger) Error(msg string, err error) {
	ev := l.logger.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(msg)
}

func (l *zeroLogger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *zeroLogger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *zeroLogger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}
