// Package logger builds the process-wide slog logger.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ekisa-team/speechgate/internal/env"
)

// DefaultLogFile is used when file logging is enabled without a path.
const DefaultLogFile = "logs/speechgate.log"

type options struct {
	output    io.Writer
	logFile   string
	level     slog.Level
	logToFile bool
}

// Option configures New.
type Option func(*options)

// WithLogToFile enables the rotated log file.
func WithLogToFile(enabled bool) Option {
	return func(o *options) { o.logToFile = enabled }
}

// WithLogFile sets the log file path.
func WithLogFile(path string) Option {
	return func(o *options) { o.logFile = path }
}

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithOutput replaces stderr as the console destination.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// New returns a colored text logger in development and a JSON logger in
// production. With file logging enabled, records are also written as JSON to
// a size-rotated file.
func New(environment env.Environment, opts ...Option) *slog.Logger {
	o := &options{
		output:  os.Stderr,
		logFile: DefaultLogFile,
		level:   slog.LevelInfo,
	}
	if environment == env.Development {
		o.level = slog.LevelDebug
	}
	for _, opt := range opts {
		opt(o)
	}

	var console slog.Handler
	if environment == env.Production {
		console = slog.NewJSONHandler(o.output, &slog.HandlerOptions{Level: o.level})
	} else {
		console = tint.NewHandler(o.output, &tint.Options{
			Level:      o.level,
			TimeFormat: time.TimeOnly,
		})
	}

	if !o.logToFile {
		return slog.New(console)
	}

	file := &lumberjack.Logger{
		Filename:   o.logFile,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}

	return slog.New(fanout{
		console,
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: o.level}),
	})
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
