// Package logging adapts zerolog to the crm.Logger interface.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/freddy208/crmprospect/pkg/crm"
)

// Logger implements crm.Logger on top of a zerolog.Logger.
type Logger struct {
	logger zerolog.Logger
}

// Build configures a Logger.
type Build struct {
	writer  io.Writer
	console bool
	level   zerolog.Level
}

// New starts a build writing JSON lines to stderr at info level.
func New() *Build {
	return &Build{writer: os.Stderr, level: zerolog.InfoLevel}
}

// FromWriter sends output to w.
func (b *Build) FromWriter(w io.Writer) *Build {
	b.writer = w

	return b
}

// Console switches to human readable output.
func (b *Build) Console(console bool) *Build {
	b.console = console

	return b
}

// Verbose lowers the level to debug.
func (b *Build) Verbose(verbose bool) *Build {
	if verbose {
		b.level = zerolog.DebugLevel
	}

	return b
}

// Level sets the minimum level.
func (b *Build) Level(level zerolog.Level) *Build {
	b.level = level

	return b
}

// Make creates the Logger.
func (b *Build) Make() *Logger {
	writer := b.writer
	if b.console {
		writer = zerolog.ConsoleWriter{Out: b.writer, TimeFormat: time.TimeOnly}
	}

	return &Logger{
		logger: zerolog.New(writer).Level(b.level).With().Timestamp().Logger(),
	}
}

// Wrap adapts an existing zerolog.Logger.
func Wrap(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger}
}

// Zerolog returns the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.logger
}

// Debug implements crm.Logger.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

// Info implements crm.Logger.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

// Warn implements crm.Logger.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

// Error implements crm.Logger.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

var _ crm.Logger = (*Logger)(nil)
