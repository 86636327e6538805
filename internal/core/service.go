package core

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AwsThamer/ranger/internal/metrics"
)

// Selection is a key with its projected fields.
type Selection struct {
	Key     string  `json:"range"`
	Matched bool    `json:"matched"`
	Fields  []Field `json:"fields"`
}

// SelectionResult is the display half and the recording half of one
// selection.
type SelectionResult struct {
	Selection
	Recording Outcome `json:"recording"`
}

// Service owns the loaded table for the life of the process. The table is
// loaded once, on first use or by Preload, and never reloaded.
type Service struct {
	loader   *Loader
	open     Opener
	recorder *Recorder
	sink     Sink
	metrics  metrics.Client

	once   sync.Once
	table  Table
	index  *Index
	status LoadResult
}

// NewService creates a Service. A nil loader reads with default options and
// a nil sink discards events.
func NewService(loader *Loader, open Opener, sink Sink, m metrics.Client) *Service {
	if loader == nil {
		loader = NewLoader(LoaderOptions{}, m)
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Service{
		loader:   loader,
		open:     open,
		recorder: NewRecorder(),
		sink:     sink,
		metrics:  metrics.OrNull(m),
	}
}

func (s *Service) load() {
	s.once.Do(func() {
		s.table, s.status = s.loader.ReadFrom(s.open)
		s.index = NewIndex(s.table)

		if dups := s.index.Duplicates(); len(dups) > 0 {
			slog.Warn("duplicate range keys, first row wins", "keys", dups)
		}
	})
}

// Preload loads the table now instead of on first use.
func (s *Service) Preload() LoadResult {
	s.load()
	return s.status
}

// Table returns the loaded table. It must not be modified.
func (s *Service) Table() Table {
	s.load()
	return s.table
}

// LoadStatus returns the report of the one load.
func (s *Service) LoadStatus() LoadResult {
	s.load()
	return s.status
}

// Keys returns the selectable range keys in table order.
func (s *Service) Keys() []string {
	s.load()
	return s.index.Keys()
}

// Lookup finds the first row for key.
func (s *Service) Lookup(key string) (Row, bool) {
	s.load()
	return s.index.Find(key)
}

// Project looks key up and projects the row. A miss projects blank fields.
func (s *Service) Project(key string) Selection {
	row, ok := s.Lookup(key)
	if !ok {
		s.metrics.Incr("range.lookup.miss", nil)
	}
	return Selection{
		Key:     key,
		Matched: ok,
		Fields:  Project(row),
	}
}

// Select displays and records a selection. The two halves do not depend on
// each other: a miss is still recorded and a failed recording still displays.
func (s *Service) Select(ctx context.Context, key string, perm PermissionGate, loc LocationSource) SelectionResult {
	sel := s.Project(key)
	outcome := s.recorder.RecordSelection(ctx, key, perm, loc, s.sink)
	s.metrics.Incr("selection.outcome", map[string]string{"outcome": string(outcome)})

	return SelectionResult{
		Selection: sel,
		Recording: outcome,
	}
}
