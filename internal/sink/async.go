package sink

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/AwsThamer/ranger/internal/core"
	"github.com/AwsThamer/ranger/internal/metrics"
)

// DefaultTimeout bounds a single background write.
const DefaultTimeout = 5 * time.Second

// AsyncOptions configures Async.
type AsyncOptions struct {
	MaxInFlight int
	Timeout     time.Duration
	Metrics     metrics.Client
	Logger      *slog.Logger
}

// Async is a core.Sink that writes in the background. Push returns at once;
// an event that finds every slot busy is dropped.
type Async struct {
	w       Writer
	limiter *Limiter
	timeout time.Duration
	metrics metrics.Client
	logger  *slog.Logger

	// configured and err are set when the configured store could not be
	// reached and w is a Discard stand-in.
	configured string
	err        error

	written atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewAsync wraps w.
func NewAsync(w Writer, opts AsyncOptions) *Async {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Async{
		w:       w,
		limiter: NewLimiter(opts.MaxInFlight),
		timeout: opts.Timeout,
		metrics: metrics.OrNull(opts.Metrics),
		logger:  opts.Logger.With("sink", w.Kind()),
	}
}

// Push implements core.Sink.
func (a *Async) Push(ctx context.Context, ev core.SelectionEvent) {
	tags := map[string]string{"sink": a.w.Kind()}

	if !a.limiter.TryAcquire() {
		a.dropped.Add(1)
		a.metrics.Incr("sink.push.dropped", tags)
		a.logger.Warn("selection event dropped",
			"error", ErrDispatchFull,
			"error_code", core.MapError(ErrDispatchFull).Code,
			"range", ev.Key,
		)
		return
	}

	// The write outlives the request that produced it.
	wctx := context.WithoutCancel(ctx)

	go func() {
		defer a.limiter.Release()

		ctx, cancel := context.WithTimeout(wctx, a.timeout)
		defer cancel()

		start := time.Now()
		id, err := a.w.Write(ctx, ev)
		a.metrics.Timing("sink.push.duration", time.Since(start), tags)

		if err != nil {
			a.failed.Add(1)
			a.metrics.Incr("sink.push.failure", tags)
			a.logger.Error("selection event write failed",
				"error", err,
				"error_code", core.MapError(err).Code,
				"range", ev.Key,
			)
			return
		}

		a.written.Add(1)
		a.metrics.Incr("sink.push.success", tags)
		a.logger.Debug("selection event written", "id", id, "range", ev.Key)
	}()
}

// Kind names the underlying store.
func (a *Async) Kind() string { return a.w.Kind() }

// Writer returns the wrapped store.
func (a *Async) Writer() Writer { return a.w }

// Drain waits for in-flight writes to finish or ctx to end.
func (a *Async) Drain(ctx context.Context) error {
	return a.limiter.WaitForDrain(ctx)
}

// Close closes the underlying store if it holds resources. Call Drain first.
func (a *Async) Close() error {
	if c, ok := a.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Err returns why the configured store is not in use, or nil.
func (a *Async) Err() error { return a.err }

// Stats counts what happened to pushed events.
type Stats struct {
	Kind       string `json:"kind"`
	Configured string `json:"configured"`
	ErrorCode  string `json:"errorCode,omitempty"`

	Written int64         `json:"written"`
	Failed  int64         `json:"failed"`
	Dropped int64         `json:"dropped"`
	Limiter LimiterStatus `json:"limiter"`
}

// Stats returns the counters.
func (a *Async) Stats() Stats {
	st := Stats{
		Kind:       a.w.Kind(),
		Configured: a.w.Kind(),
		Written:    a.written.Load(),
		Failed:     a.failed.Load(),
		Dropped:    a.dropped.Load(),
		Limiter:    a.limiter.Status(),
	}
	if a.err != nil {
		st.Configured = a.configured
		st.ErrorCode = core.MapError(a.err).Code
	}
	return st
}

var _ core.Sink = (*Async)(nil)
