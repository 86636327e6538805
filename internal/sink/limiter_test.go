package sink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterTryAcquire(t *testing.T) {
	l := NewLimiter(2)

	assert.Equal(t, 2, l.Available())
	require.True(t, l.TryAcquire())
	require.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())
	assert.Equal(t, 2, l.Active())
	assert.Zero(t, l.Available())

	l.Release()
	assert.Equal(t, 1, l.Active())
	assert.True(t, l.TryAcquire())
}

func TestLimiterDefault(t *testing.T) {
	assert.Equal(t, DefaultMaxInFlight, NewLimiter(0).MaxInFlight())
}

func TestLimiterWaitForDrain(t *testing.T) {
	l := NewLimiter(1)
	require.NoError(t, l.WaitForDrain(context.Background()))

	require.True(t, l.TryAcquire())
	go func() {
		time.Sleep(30 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, l.WaitForDrain(ctx))
	assert.Zero(t, l.Active())
}

func TestLimiterWaitForDrainTimeout(t *testing.T) {
	l := NewLimiter(1)
	require.True(t, l.TryAcquire())
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.WaitForDrain(ctx), context.DeadlineExceeded)
}

func TestLimiterStatus(t *testing.T) {
	l := NewLimiter(3)
	require.True(t, l.TryAcquire())

	assert.Equal(t, LimiterStatus{Active: 1, Available: 2, MaxInFlight: 3}, l.Status())
}
