package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/AwsThamer/ranger/internal/config"
	"github.com/AwsThamer/ranger/internal/core"
	"github.com/AwsThamer/ranger/internal/logging"
	"github.com/AwsThamer/ranger/internal/metrics"
	"github.com/AwsThamer/ranger/internal/sink"
	"github.com/AwsThamer/ranger/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	flush := logging.Setup(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		SentryDSN:   cfg.Logging.SentryDSN,
		Environment: cfg.Logging.Environment,
	})
	defer flush(2 * time.Second)

	slog.Info("configuration loaded", "config", cfg.String())

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m metrics.Client = metrics.NullProvider{}
	if cfg.Metrics.Enabled {
		statsd, err := metrics.NewStatsd(cfg.Metrics.Addr, cfg.Metrics.Namespace)
		if err != nil {
			slog.Warn("metrics disabled", "addr", cfg.Metrics.Addr, "error", err)
		} else {
			m = statsd
		}
	}
	defer m.Close()

	events := sink.New(ctx, cfg, m)
	if err := events.Err(); err != nil {
		// Lookups keep working; selections are discarded until restart.
		slog.Warn("serving without selection recording", "sink", cfg.Sink.Kind, "error", err)
	} else {
		slog.Info("selection sink ready", "kind", events.Kind())
	}

	format, err := core.ParseFormat(cfg.Data.Format)
	if err != nil {
		return err
	}
	loader := core.NewLoader(core.LoaderOptions{
		Format:     format,
		Sheet:      cfg.Data.Sheet,
		SkipHeader: cfg.Data.SkipHeader,
	}, m)

	service := core.NewService(loader, core.FileOpener(cfg.Data.File), events, m)
	if res := service.Preload(); !res.OK() {
		// Serve anyway; health reports the failure and the picker is empty.
		slog.Warn("range table unavailable", "file", cfg.Data.File, "error", res.Err)
	} else {
		slog.Info("range table loaded",
			"file", cfg.Data.File,
			"rows", res.Rows,
			"keys", len(service.Keys()),
		)
	}

	server := web.NewServer(cfg, service, events, m)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		status := events.Stats().Limiter
		if status.Active > 0 {
			slog.Info("waiting for selection writes", "active", status.Active)
		}
		if err := events.Drain(shutdownCtx); err != nil {
			slog.Warn("selection writes did not complete in time", "error", err)
		}
		return events.Close()
	})

	return g.Wait()
}
