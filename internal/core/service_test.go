package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AwsThamer/ranger/internal/geo"
)

func bytesOpener(data []byte, calls *int32) Opener {
	return func() (io.ReadCloser, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func TestServiceLoadsOnce(t *testing.T) {
	var calls int32
	svc := NewService(NewLoader(LoaderOptions{}, nil), bytesOpener(workbook(t, fixtureRows), &calls), nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Keys()
		}()
	}
	wg.Wait()
	svc.Preload()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"1200", "1400", "7"}, svc.Keys())
	assert.Equal(t, 3, svc.LoadStatus().Rows)
}

func TestServiceOpenFailure(t *testing.T) {
	svc := NewService(NewLoader(LoaderOptions{}, nil), func() (io.ReadCloser, error) {
		return nil, errors.New("open HE860.xlsx: no such file or directory")
	}, nil, nil)

	assert.Empty(t, svc.Keys())
	assert.Empty(t, svc.Table())
	status := svc.LoadStatus()
	assert.False(t, status.OK())
	assert.Equal(t, "LOAD002", MapError(status.Err).Code)

	sel := svc.Project("7")
	assert.False(t, sel.Matched)
	assert.Len(t, sel.Fields, len(Labels))
}

func TestServiceNilOpener(t *testing.T) {
	svc := NewService(NewLoader(LoaderOptions{}, nil), nil, nil, nil)
	assert.Empty(t, svc.Keys())
	assert.Error(t, svc.LoadStatus().Err)
}

func TestServiceClosesStreamAfterFailedParse(t *testing.T) {
	boom := errors.New("boom")

	for name, r := range map[string]io.Reader{
		"corrupt workbook": bytes.NewReader([]byte("PK\x03\x04garbage")),
		"error mid read":   &failingReader{prefix: []byte("1,a\n"), err: boom},
	} {
		t.Run(name, func(t *testing.T) {
			rc := &trackingReadCloser{Reader: r}
			svc := NewService(nil, func() (io.ReadCloser, error) { return rc, nil }, nil, nil)

			assert.Empty(t, svc.Keys())
			svc.Preload()
			assert.False(t, svc.LoadStatus().OK())
			assert.Equal(t, 1, rc.closes)
		})
	}
}

func TestServiceNilLoader(t *testing.T) {
	svc := NewService(nil, bytesOpener(workbook(t, fixtureRows), nil), nil, nil)

	assert.Equal(t, []string{"1200", "1400", "7"}, svc.Keys())
	assert.Equal(t, FormatXLSX, svc.LoadStatus().Format)
}

func TestServiceProject(t *testing.T) {
	svc := NewService(NewLoader(LoaderOptions{}, nil), bytesOpener(workbook(t, fixtureRows), nil), nil, nil)

	sel := svc.Project(" 1400 ")
	assert.True(t, sel.Matched)
	assert.Equal(t, "3", sel.Fields[0].Value)
	assert.Equal(t, "2", sel.Fields[1].Value)
	assert.Empty(t, sel.Fields[2].Value)
}

func TestServiceSelectIsIndependent(t *testing.T) {
	sink := &recordingSink{}
	svc := NewService(NewLoader(LoaderOptions{}, nil), bytesOpener(workbook(t, fixtureRows), nil), sink, nil)
	fix := StaticLocation{Fix: &geo.Coordinates{Latitude: 31.5, Longitude: 35}}

	// A miss is still recorded.
	res := svc.Select(context.Background(), "missing", StaticPermission(true), fix)
	assert.False(t, res.Matched)
	assert.Equal(t, OutcomeRecorded, res.Recording)

	// Refused permission still displays.
	res = svc.Select(context.Background(), "7", StaticPermission(false), fix)
	assert.True(t, res.Matched)
	assert.Equal(t, "x", res.Fields[0].Value)
	assert.Equal(t, OutcomePermissionRequested, res.Recording)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "missing", events[0].Key)
}
