package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
)

const (
	// DefaultAddr is where a local DogStatsD agent listens.
	DefaultAddr = "127.0.0.1:8125"

	// DefaultNamespace prefixes every metric name.
	DefaultNamespace = "ranger."
)

type statsClient struct {
	client *statsd.Client
	rate   float64
}

// NewStatsd connects a DogStatsD client. UDP is connectionless, so this only
// fails on a malformed address.
func NewStatsd(addr, namespace string) (Client, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c, err := statsd.New(addr, statsd.WithNamespace(namespace))
	if err != nil {
		return nil, fmt.Errorf("statsd client: %w", err)
	}
	return &statsClient{client: c, rate: 1}, nil
}

func (s *statsClient) Timing(name string, value time.Duration, tags map[string]string) {
	_ = s.client.Timing(name, value, toTags(tags), s.rate)
}

func (s *statsClient) Incr(name string, tags map[string]string) {
	_ = s.client.Incr(name, toTags(tags), s.rate)
}

func (s *statsClient) Gauge(name string, value float64, tags map[string]string) {
	_ = s.client.Gauge(name, value, toTags(tags), s.rate)
}

func (s *statsClient) Close() error {
	return s.client.Close()
}

// toTags renders key:value pairs in key order.
func toTags(tags map[string]string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for k, v := range tags {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}
