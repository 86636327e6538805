package core

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AwsThamer/ranger/internal/metrics"
)

var fixtureRows = [][]string{
	{"1200", "3", "2", "5", "1", "7", "0", "9", "4"},
	{"1400", "3", "2"},
	{"7", " x ", "y"},
}

func TestLoaderXLSX(t *testing.T) {
	data := workbook(t, fixtureRows)

	table, res := NewLoader(LoaderOptions{}, nil).Read(bytes.NewReader(data))
	require.NoError(t, res.Err)

	assert.Equal(t, FormatXLSX, res.Format)
	assert.Equal(t, "Sheet1", res.Sheet)
	assert.Equal(t, 3, res.Rows)
	require.Len(t, table, 3)
	assert.Equal(t, Row{"1200", "3", "2", "5", "1", "7", "0", "9", "4"}, table[0])
	assert.Equal(t, Row{"7", "x", "y"}, table[2])
}

func TestLoaderDropsBlankRows(t *testing.T) {
	data := workbook(t, [][]string{
		{"1", "a"},
		{"  ", ""},
		{"2", "b"},
	})

	table := NewLoader(LoaderOptions{}, nil).Load(bytes.NewReader(data))
	assert.Equal(t, Table{{"1", "a"}, {"2", "b"}}, table)
}

func TestLoaderSkipsUnsetRows(t *testing.T) {
	data := workbook(t, [][]string{
		{"1", "a"},
		nil,
		nil,
		{"2", "b"},
	})

	table := NewLoader(LoaderOptions{}, nil).Load(bytes.NewReader(data))
	assert.Equal(t, Table{{"1", "a"}, {"2", "b"}}, table)
}

func TestLoaderCSV(t *testing.T) {
	input := "\xEF\xBB\xBF1, a ,b\n,,\n2,\"c, d\"\n"

	table, res := NewLoader(LoaderOptions{}, nil).Read(strings.NewReader(input))
	require.NoError(t, res.Err)

	assert.Equal(t, FormatCSV, res.Format)
	assert.Equal(t, Table{{"1", "a", "b"}, {"2", "c, d"}}, table)
	assert.Equal(t, int64(len(input)), res.Bytes)
}

func TestLoaderFormatsAgree(t *testing.T) {
	var csvBuf strings.Builder
	for _, r := range fixtureRows {
		csvBuf.WriteString(strings.Join(r, ","))
		csvBuf.WriteString("\n")
	}

	loader := NewLoader(LoaderOptions{}, nil)
	fromXLSX := loader.Load(bytes.NewReader(workbook(t, fixtureRows)))
	fromCSV := loader.Load(strings.NewReader(csvBuf.String()))

	assert.Equal(t, fromXLSX, fromCSV)
}

func TestLoaderSkipHeader(t *testing.T) {
	rows := [][]string{
		{"", ""},
		{"Range", "Full fill"},
		{"1", "a"},
		{"2", "b"},
	}
	data := workbook(t, rows)

	kept := NewLoader(LoaderOptions{}, nil).Load(bytes.NewReader(data))
	assert.Len(t, kept, 3)
	assert.Equal(t, Row{"Range", "Full fill"}, kept[0])

	skipped := NewLoader(LoaderOptions{SkipHeader: true}, nil).Load(bytes.NewReader(data))
	assert.Equal(t, Table{{"1", "a"}, {"2", "b"}}, skipped)
}

func TestLoaderSheetSelection(t *testing.T) {
	data := workbook(t,
		[][]string{{"first"}},
		sheetRows{name: "Other", rows: [][]string{{"second"}}},
	)

	first := NewLoader(LoaderOptions{}, nil).Load(bytes.NewReader(data))
	assert.Equal(t, Table{{"first"}}, first)

	other, res := NewLoader(LoaderOptions{Sheet: "Other"}, nil).Read(bytes.NewReader(data))
	require.NoError(t, res.Err)
	assert.Equal(t, "Other", res.Sheet)
	assert.Equal(t, Table{{"second"}}, other)

	missing, res := NewLoader(LoaderOptions{Sheet: "Nope"}, nil).Read(bytes.NewReader(data))
	assert.Error(t, res.Err)
	assert.Empty(t, missing)
}

func TestLoaderForcedFormat(t *testing.T) {
	// A workbook forced through the text decoder is not an error, just noise.
	data := workbook(t, fixtureRows)
	_, res := NewLoader(LoaderOptions{Format: FormatCSV}, nil).Read(bytes.NewReader(data))
	assert.Equal(t, FormatCSV, res.Format)

	// Text forced through the workbook decoder fails soft.
	table, res := NewLoader(LoaderOptions{Format: FormatXLSX}, nil).Read(strings.NewReader("1,a\n"))
	assert.Error(t, res.Err)
	assert.Empty(t, table)
}

type failingReader struct {
	prefix []byte
	err    error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.prefix) > 0 {
		n := copy(p, r.prefix)
		r.prefix = r.prefix[n:]
		return n, nil
	}
	return 0, r.err
}

func TestLoaderFailsSoft(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		r    io.Reader
	}{
		{"error on first read", &failingReader{err: boom}},
		{"error mid csv", &failingReader{prefix: []byte("1,a\n2,b"), err: boom}},
		{"truncated workbook", bytes.NewReader([]byte("PK\x03\x04garbage"))},
		{"error mid workbook", &failingReader{prefix: []byte("PK\x03\x04"), err: boom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var table Table
			var res LoadResult
			assert.NotPanics(t, func() {
				table, res = NewLoader(LoaderOptions{}, nil).Read(tt.r)
			})
			assert.Empty(t, table)
			assert.Error(t, res.Err)
			assert.Zero(t, res.Rows)
		})
	}
}

func TestLoaderReportsFailureMetric(t *testing.T) {
	m := &fakeMetrics{}
	NewLoader(LoaderOptions{}, m).Load(&failingReader{err: errors.New("boom")})

	assert.Equal(t, 1, m.incrs["table.load.failure"])
	assert.Zero(t, m.gauges["table.load.rows"])
}

func TestLoaderReportsSuccessMetrics(t *testing.T) {
	m := &fakeMetrics{}
	NewLoader(LoaderOptions{}, m).Load(strings.NewReader("1,a\n2,b\n"))

	assert.Zero(t, m.incrs["table.load.failure"])
	assert.Equal(t, float64(2), m.gauges["table.load.rows"])
	assert.Equal(t, 1, m.timings["table.load.duration"])
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "HE860.xlsx")
	require.NoError(t, os.WriteFile(path, workbook(t, fixtureRows), 0o600))

	loader := NewLoader(LoaderOptions{}, nil)
	assert.Len(t, loader.LoadFile(path), 3)

	table, res := loader.ReadFile(filepath.Join(dir, "missing.xlsx"))
	assert.Empty(t, table)
	assert.ErrorIs(t, res.Err, os.ErrNotExist)
	assert.Equal(t, "LOAD002", MapError(res.Err).Code)
}

type trackingReadCloser struct {
	io.Reader
	closes int
}

func (r *trackingReadCloser) Close() error {
	r.closes++
	return nil
}

func TestLoaderReadFromClosesStream(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name   string
		r      io.Reader
		wantOK bool
	}{
		{"workbook", bytes.NewReader(workbook(t, fixtureRows)), true},
		{"corrupt workbook", bytes.NewReader([]byte("PK\x03\x04garbage")), false},
		{"error mid csv", &failingReader{prefix: []byte("1,a\n2,b"), err: boom}, false},
		{"error mid workbook", &failingReader{prefix: []byte("PK\x03\x04"), err: boom}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := &trackingReadCloser{Reader: tt.r}
			opens := 0
			table, res := NewLoader(LoaderOptions{}, nil).ReadFrom(func() (io.ReadCloser, error) {
				opens++
				return rc, nil
			})

			assert.Equal(t, 1, opens)
			assert.Equal(t, 1, rc.closes)
			assert.Equal(t, tt.wantOK, res.OK())
			if !tt.wantOK {
				assert.Empty(t, table)
			}
		})
	}
}

func TestLoaderReadFromOpenFailure(t *testing.T) {
	m := &fakeMetrics{}
	table, res := NewLoader(LoaderOptions{}, m).ReadFrom(func() (io.ReadCloser, error) {
		return nil, os.ErrNotExist
	})

	assert.Empty(t, table)
	assert.ErrorIs(t, res.Err, os.ErrNotExist)
	assert.Equal(t, 1, m.incrs["table.load.failure"])
	assert.False(t, res.LoadedAt.IsZero())

	_, res = NewLoader(LoaderOptions{}, nil).ReadFrom(nil)
	assert.ErrorIs(t, res.Err, errNoOpener)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "AUTO": FormatAuto, "xlsx": FormatXLSX, " csv ": FormatCSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("ods")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

type fakeMetrics struct {
	incrs   map[string]int
	gauges  map[string]float64
	timings map[string]int
}

func (f *fakeMetrics) init() {
	if f.incrs == nil {
		f.incrs = map[string]int{}
		f.gauges = map[string]float64{}
		f.timings = map[string]int{}
	}
}

func (f *fakeMetrics) Timing(name string, _ time.Duration, _ map[string]string) {
	f.init()
	f.timings[name]++
}

func (f *fakeMetrics) Incr(name string, _ map[string]string) {
	f.init()
	f.incrs[name]++
}

func (f *fakeMetrics) Gauge(name string, v float64, _ map[string]string) {
	f.init()
	f.gauges[name] = v
}

func (f *fakeMetrics) Close() error { return nil }

var _ metrics.Client = (*fakeMetrics)(nil)
