// Package metrics provides the side channel for operational counters:
// table load outcomes and event sink results.
package metrics

import (
	"io"
	"time"
)

// Client is the narrow metrics surface the rest of the application uses.
type Client interface {
	Timing(name string, value time.Duration, tags map[string]string)
	Incr(name string, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	io.Closer
}

// NullProvider discards everything. It is the default when metrics are disabled.
type NullProvider struct{}

func (NullProvider) Timing(name string, value time.Duration, tags map[string]string) {}

func (NullProvider) Incr(name string, tags map[string]string) {}

func (NullProvider) Gauge(name string, value float64, tags map[string]string) {}

func (NullProvider) Close() error { return nil }

// OrNull returns c, or a NullProvider when c is nil.
func OrNull(c Client) Client {
	if c == nil {
		return NullProvider{}
	}
	return c
}
