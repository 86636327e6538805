package sink

// limiter.go bounds the number of event writes in flight. Push never waits
// for a slot: when the limiter is full the event is dropped, so a slow store
// cannot back up request handling.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrDispatchFull is reported when every dispatch slot is busy.
var ErrDispatchFull = errors.New("dispatch queue full")

// DefaultMaxInFlight is the default limit for concurrent writes.
const DefaultMaxInFlight = 32

// drainPoll is how often WaitForDrain checks for idle.
const drainPoll = 10 * time.Millisecond

// Limiter is a counting semaphore over in-flight writes.
type Limiter struct {
	slots  chan struct{}
	active atomic.Int64
}

// NewLimiter allows at most maxInFlight concurrent writes.
func NewLimiter(maxInFlight int) *Limiter {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Limiter{slots: make(chan struct{}, maxInFlight)}
}

// TryAcquire takes a slot without blocking.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot. Call exactly once per successful TryAcquire.
func (l *Limiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Active returns the number of writes in flight.
func (l *Limiter) Active() int { return int(l.active.Load()) }

// MaxInFlight returns the slot count.
func (l *Limiter) MaxInFlight() int { return cap(l.slots) }

// Available returns the number of free slots.
func (l *Limiter) Available() int { return cap(l.slots) - len(l.slots) }

// WaitForDrain blocks until no write is in flight or ctx is done.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	if l.Active() == 0 {
		return nil
	}

	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.Active() == 0 {
				return nil
			}
		}
	}
}

// LimiterStatus is a snapshot for health reporting.
type LimiterStatus struct {
	Active      int `json:"active"`
	Available   int `json:"available"`
	MaxInFlight int `json:"maxInFlight"`
}

// Status returns the current limiter state.
func (l *Limiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:      l.Active(),
		Available:   l.Available(),
		MaxInFlight: l.MaxInFlight(),
	}
}
