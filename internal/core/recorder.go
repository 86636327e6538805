package core

import (
	"context"
	"time"

	"github.com/AwsThamer/ranger/internal/geo"
)

// PermissionGate reports and requests the user's consent to location access.
type PermissionGate interface {
	Granted(ctx context.Context) bool
	// Request asks for consent. It must not block on the answer.
	Request(ctx context.Context)
}

// LocationSource returns the device's last known fix, or nil.
type LocationSource interface {
	LastKnown(ctx context.Context) *geo.Coordinates
}

// Sink accepts events fire-and-forget. Push must not block on the write, and
// failures stay inside the sink.
type Sink interface {
	Push(ctx context.Context, ev SelectionEvent)
}

// SelectionEvent records that a range was chosen at a location. The JSON
// shape is the one the event store has always received.
type SelectionEvent struct {
	Key         string           `json:"range"`
	Coordinates *geo.Coordinates `json:"location"`
	RecordedAt  time.Time        `json:"recordedAt"`
	Source      string           `json:"source,omitempty"`
	UserAgent   string           `json:"userAgent,omitempty"`
}

// Outcome is what RecordSelection did.
type Outcome string

const (
	OutcomeRecorded            Outcome = "recorded"
	OutcomeNoFix               Outcome = "no_fix"
	OutcomePermissionRequested Outcome = "permission_requested"

	// OutcomeNoPermission means there was no gate to ask; nothing was
	// requested or pushed.
	OutcomeNoPermission Outcome = "no_permission"
)

// Recorder turns a selection into a SelectionEvent when consent and a fix
// are both available. It holds no per-selection state.
type Recorder struct {
	now func() time.Time
}

// NewRecorder creates a Recorder using the wall clock.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// RecordSelection gates on permission, then on a valid fix, then hands the
// event to sink and returns without waiting for the write. A nil perm counts
// as not granted with no one to ask.
func (r *Recorder) RecordSelection(ctx context.Context, key string, perm PermissionGate, loc LocationSource, sink Sink) Outcome {
	if perm == nil {
		return OutcomeNoPermission
	}
	if !perm.Granted(ctx) {
		perm.Request(ctx)
		return OutcomePermissionRequested
	}

	var fix *geo.Coordinates
	if loc != nil {
		fix = loc.LastKnown(ctx)
	}
	if fix == nil || fix.Validate() != nil {
		return OutcomeNoFix
	}

	if sink == nil {
		sink = NopSink{}
	}

	c := *fix
	sink.Push(ctx, SelectionEvent{
		Key:         key,
		Coordinates: &c,
		RecordedAt:  r.now().UTC(),
		Source:      SourceFromContext(ctx),
		UserAgent:   UserAgentFromContext(ctx),
	})
	return OutcomeRecorded
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Push(context.Context, SelectionEvent) {}

// ReportedPermission is a PermissionGate for clients that report their own
// consent state. Request only marks that the client must be asked.
type ReportedPermission struct {
	granted   bool
	requested bool
}

// NewReportedPermission returns a gate answering granted.
func NewReportedPermission(granted bool) *ReportedPermission {
	return &ReportedPermission{granted: granted}
}

func (p *ReportedPermission) Granted(context.Context) bool { return p.granted }

func (p *ReportedPermission) Request(context.Context) { p.requested = true }

// Requested reports whether Request was called.
func (p *ReportedPermission) Requested() bool { return p.requested }

// StaticLocation is a LocationSource with a fixed answer.
type StaticLocation struct {
	Fix *geo.Coordinates
}

func (s StaticLocation) LastKnown(context.Context) *geo.Coordinates { return s.Fix }

// StaticPermission is a PermissionGate with a fixed answer whose Request
// does nothing.
type StaticPermission bool

func (p StaticPermission) Granted(context.Context) bool { return bool(p) }

func (StaticPermission) Request(context.Context) {}
