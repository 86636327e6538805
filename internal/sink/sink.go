// Package sink records selection events in an external append-only store.
//
// Every store is a Writer. Async turns a Writer into the fire-and-forget
// core.Sink used by the service: writes run in the background with their own
// timeout, and failures are logged and counted, never returned to the caller.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AwsThamer/ranger/internal/config"
	"github.com/AwsThamer/ranger/internal/core"
	"github.com/AwsThamer/ranger/internal/metrics"
)

// Writer appends one event and returns the identifier the store assigned.
type Writer interface {
	Write(ctx context.Context, ev core.SelectionEvent) (string, error)
	Kind() string
}

// New connects the store selected by cfg.Sink.Kind and wraps it in Async.
// It never fails: when the store cannot be reached the failure is logged with
// its code and counted, and the returned Async discards events. Err on the
// result reports what went wrong.
func New(ctx context.Context, cfg *config.Config, m metrics.Client) *Async {
	m = metrics.OrNull(m)
	opts := AsyncOptions{
		MaxInFlight: cfg.Sink.MaxInFlight,
		Timeout:     cfg.Sink.Timeout,
		Metrics:     m,
	}

	connectCtx := ctx
	if cfg.Sink.Timeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.Sink.Timeout)
		defer cancel()
	}

	w, err := newWriter(connectCtx, cfg)
	if err != nil {
		msg := core.MapError(err)
		m.Incr("sink.connect.failure", map[string]string{"sink": cfg.Sink.Kind, "code": msg.Code})
		slog.Error("selection sink unavailable, discarding events",
			"sink", cfg.Sink.Kind,
			"error", err,
			"error_code", msg.Code,
		)

		a := NewAsync(Discard{}, opts)
		a.configured = cfg.Sink.Kind
		a.err = err
		return a
	}
	return NewAsync(w, opts)
}

func newWriter(ctx context.Context, cfg *config.Config) (Writer, error) {
	switch cfg.Sink.Kind {
	case config.SinkMemory, "":
		return NewMemory(), nil
	case config.SinkNone:
		return Discard{}, nil
	case config.SinkPostgres:
		return ConnectPostgres(ctx, cfg.Database)
	case config.SinkRedis:
		return ConnectRedis(ctx, cfg.Redis)
	case config.SinkRealtime:
		return NewRealtimeDB(cfg.Realtime, nil)
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Sink.Kind)
	}
}

// Discard accepts and forgets every event.
type Discard struct{}

func (Discard) Write(context.Context, core.SelectionEvent) (string, error) { return "", nil }

func (Discard) Kind() string { return config.SinkNone }
