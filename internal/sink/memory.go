package sink

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/AwsThamer/ranger/internal/config"
	"github.com/AwsThamer/ranger/internal/core"
)

// Stored is an event with the identifier it was stored under.
type Stored struct {
	ID    string
	Event core.SelectionEvent
}

// Memory keeps events in process. It is the default store and the one tests
// read back from.
type Memory struct {
	mu     sync.Mutex
	events []Stored
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Write(ctx context.Context, ev core.SelectionEvent) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()

	m.mu.Lock()
	m.events = append(m.events, Stored{ID: id, Event: ev})
	m.mu.Unlock()

	return id, nil
}

func (m *Memory) Kind() string { return config.SinkMemory }

// Events returns a copy of the stored events in write order.
func (m *Memory) Events() []Stored {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Stored(nil), m.events...)
}

// Len returns the number of stored events.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
