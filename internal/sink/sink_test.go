package sink

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AwsThamer/ranger/internal/config"
	"github.com/AwsThamer/ranger/internal/core"
)

func TestNew(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{config.SinkMemory, config.SinkMemory},
		{"", config.SinkMemory},
		{config.SinkNone, config.SinkNone},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			cfg := &config.Config{Sink: config.SinkConfig{Kind: tt.kind, Timeout: time.Second, MaxInFlight: 2}}
			a := New(context.Background(), cfg, nil)
			require.NoError(t, a.Err())
			assert.Equal(t, tt.want, a.Kind())
			assert.Equal(t, 2, a.Stats().Limiter.MaxInFlight)
		})
	}
}

func TestNewRealtime(t *testing.T) {
	cfg := &config.Config{
		Sink:     config.SinkConfig{Kind: config.SinkRealtime},
		Realtime: config.RealtimeConfig{URL: "https://ranges.example.com", Path: "data"},
	}
	a := New(context.Background(), cfg, nil)
	require.NoError(t, a.Err())
	assert.Equal(t, config.SinkRealtime, a.Kind())
}

func TestNewFallsBackWhenUnreachable(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.Config
		wantCode string
	}{
		{
			name: "redis refused",
			cfg: &config.Config{
				Sink:  config.SinkConfig{Kind: config.SinkRedis, Timeout: 2 * time.Second, MaxInFlight: 2},
				Redis: config.RedisConfig{Addr: "127.0.0.1:1", Stream: "selections"},
			},
			wantCode: "SINK001",
		},
		{
			name: "postgres bad url",
			cfg: &config.Config{
				Sink:     config.SinkConfig{Kind: config.SinkPostgres, Timeout: 2 * time.Second, MaxInFlight: 2},
				Database: config.DatabaseConfig{URL: "postgres://%zz", MaxConns: 1},
			},
		},
		{
			name: "unknown kind",
			cfg:  &config.Config{Sink: config.SinkConfig{Kind: "kafka", MaxInFlight: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &countingMetrics{}
			a := New(context.Background(), tt.cfg, m)
			require.NotNil(t, a)
			require.Error(t, a.Err())

			assert.Equal(t, config.SinkNone, a.Kind())
			assert.Equal(t, 1, m.count("sink.connect.failure"))

			st := a.Stats()
			assert.Equal(t, tt.cfg.Sink.Kind, st.Configured)
			assert.NotEmpty(t, st.ErrorCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, st.ErrorCode)
			}

			// Events are accepted and discarded.
			a.Push(context.Background(), core.SelectionEvent{Key: "1"})
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			require.NoError(t, a.Drain(ctx))
			assert.Equal(t, int64(1), a.Stats().Written)
		})
	}
}

type countingMetrics struct {
	mu    sync.Mutex
	incrs map[string]int
}

func (m *countingMetrics) Timing(string, time.Duration, map[string]string) {}
func (m *countingMetrics) Gauge(string, float64, map[string]string)        {}
func (m *countingMetrics) Close() error                                    { return nil }

func (m *countingMetrics) Incr(name string, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrs == nil {
		m.incrs = make(map[string]int)
	}
	m.incrs[name]++
}

func (m *countingMetrics) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.incrs[name]
}
