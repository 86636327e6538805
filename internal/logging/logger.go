// Package logging configures log/slog for the service.
//
// Text output goes through tint for humans, JSON output through the standard
// handler for collectors. When a Sentry DSN is configured, error records are
// also fanned out to Sentry. FromContext picks up chi's request ID so every
// entry of a request can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Options selects the handler.
type Options struct {
	// Level is debug, info, warn or error (default: info)
	Level string
	// Format is text or json (default: text)
	Format string
	// SentryDSN enables error reporting when set
	SentryDSN   string
	Environment string
	// Output defaults to os.Stdout
	Output io.Writer
}

// New builds a logger. The second result reports whether errors are also
// sent to Sentry.
func New(opts Options) (*slog.Logger, bool) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	level := parseLevel(opts.Level)

	var handler slog.Handler
	if strings.ToLower(opts.Format) == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(out, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	}

	if opts.SentryDSN == "" {
		return slog.New(handler), false
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         opts.SentryDSN,
		Environment: opts.Environment,
	})
	if err != nil {
		slog.New(handler).Warn("failed to enable Sentry output", slog.Any("err", err))
		return slog.New(handler), false
	}

	handler = slogmulti.Fanout(
		handler,
		slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
	)
	return slog.New(handler), true
}

// Setup installs the logger from New as the slog default and returns a
// function that flushes buffered Sentry events.
func Setup(opts Options) (flush func(time.Duration)) {
	logger, toSentry := New(opts)
	slog.SetDefault(logger)

	if !toSentry {
		return func(time.Duration) {}
	}
	return func(timeout time.Duration) {
		sentry.Flush(timeout)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns the default logger with the chi request ID attached,
// when ctx carries one.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns FromContext(ctx) with extra fields.
//
//	log := logging.WithFields(ctx, "range", key)
//	log.Info("selection recorded", "outcome", outcome)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
