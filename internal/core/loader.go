package core

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/AwsThamer/ranger/internal/metrics"
)

var (
	// ErrUnknownFormat is returned for a format name that is not auto, xlsx or csv.
	ErrUnknownFormat = errors.New("unknown table format")

	// ErrEmptyWorkbook is returned when a workbook has no sheets.
	ErrEmptyWorkbook = errors.New("workbook has no sheets")
)

// Format is the encoding of a table file.
type Format string

const (
	FormatAuto Format = "auto"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "", "auto", "xlsx" and "csv", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// zipMagic opens every xlsx file.
var zipMagic = []byte("PK\x03\x04")

// LoaderOptions controls how a table file is read.
type LoaderOptions struct {
	// Format forces the decoder. FormatAuto sniffs the leading bytes.
	Format Format

	// Sheet selects a workbook sheet by name. Empty means the first sheet.
	Sheet string

	// SkipHeader drops the first non-empty row.
	SkipHeader bool
}

// LoadResult describes the last load for diagnostics. Err is the failure
// reason when the load fell back to an empty table.
type LoadResult struct {
	Rows     int
	Bytes    int64
	Format   Format
	Sheet    string
	Err      error
	Duration time.Duration
	LoadedAt time.Time
}

// OK reports whether the load succeeded.
func (r LoadResult) OK() bool { return r.Err == nil }

// Loader turns a spreadsheet byte stream into a Table. It never fails: any
// error yields an empty Table, and the reason is logged, counted and returned
// in the LoadResult.
type Loader struct {
	opts    LoaderOptions
	metrics metrics.Client
	logger  *slog.Logger
}

// NewLoader creates a Loader. A nil metrics client disables metrics.
func NewLoader(opts LoaderOptions, m metrics.Client) *Loader {
	if opts.Format == "" {
		opts.Format = FormatAuto
	}
	return &Loader{
		opts:    opts,
		metrics: metrics.OrNull(m),
		logger:  slog.Default(),
	}
}

// WithLogger returns a copy of the loader logging to logger.
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	c := *l
	c.logger = logger
	return &c
}

// Options returns the loader configuration.
func (l *Loader) Options() LoaderOptions { return l.opts }

// Load reads r and returns the table. The caller owns r.
func (l *Loader) Load(r io.Reader) Table {
	t, _ := l.Read(r)
	return t
}

// LoadFile opens path, loads it and closes it.
func (l *Loader) LoadFile(path string) Table {
	t, _ := l.ReadFile(path)
	return t
}

// ReadFile is LoadFile returning the load report as well.
func (l *Loader) ReadFile(path string) (Table, LoadResult) {
	return l.ReadFrom(FileOpener(path))
}

// Opener opens the table file. The caller closes the returned reader.
type Opener func() (io.ReadCloser, error)

// FileOpener opens path on the local filesystem.
func FileOpener(path string) Opener {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}

// FSOpener opens name inside fsys, e.g. an embedded bundle.
func FSOpener(fsys fs.FS, name string) Opener {
	return func() (io.ReadCloser, error) {
		return fsys.Open(name)
	}
}

var errNoOpener = errors.New("data file not configured")

// ReadFrom opens the stream, reads it and closes it on every path, including
// a failed parse. The reported duration covers the open.
func (l *Loader) ReadFrom(open Opener) (Table, LoadResult) {
	start := time.Now()
	res := LoadResult{Format: l.opts.Format}

	if open == nil {
		return nil, l.finish(start, res, errNoOpener)
	}
	rc, err := open()
	if err != nil {
		return nil, l.finish(start, res, fmt.Errorf("open data file: %w", err))
	}
	defer rc.Close()

	return l.read(start, rc)
}

// Read is Load returning the load report as well.
func (l *Loader) Read(r io.Reader) (Table, LoadResult) {
	return l.read(time.Now(), r)
}

func (l *Loader) read(start time.Time, r io.Reader) (table Table, res LoadResult) {
	res.Format = l.opts.Format

	defer func() {
		if p := recover(); p != nil {
			table = nil
			res = l.finish(start, res, fmt.Errorf("load table: panic: %v", p))
		}
	}()

	counter := NewCountingReader(r)
	br := bufio.NewReader(counter)

	format, err := l.detect(br)
	if err != nil {
		return nil, l.finish(start, res, err)
	}
	res.Format = format

	var raw [][]string
	switch format {
	case FormatXLSX:
		raw, res.Sheet, err = l.readWorkbook(br)
	default:
		raw, err = readDelimited(br)
	}
	res.Bytes = counter.BytesRead()
	if err != nil {
		return nil, l.finish(start, res, err)
	}

	table = normalizeRows(raw, l.opts.SkipHeader)
	res.Rows = len(table)
	return table, l.finish(start, res, nil)
}

func (l *Loader) detect(br *bufio.Reader) (Format, error) {
	switch l.opts.Format {
	case FormatXLSX, FormatCSV:
		return l.opts.Format, nil
	case FormatAuto, "":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, l.opts.Format)
	}

	head, err := br.Peek(len(zipMagic))
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read header: %w", err)
	}
	if bytes.Equal(head, zipMagic) {
		return FormatXLSX, nil
	}
	return FormatCSV, nil
}

func (l *Loader) readWorkbook(r io.Reader) ([][]string, string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := l.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, "", ErrEmptyWorkbook
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, sheet, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, sheet, nil
}

func readDelimited(br *bufio.Reader) ([][]string, error) {
	tr, err := textReader(br)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	cr := csv.NewReader(tr)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// finish stamps the result and reports it on the side channel.
func (l *Loader) finish(start time.Time, res LoadResult, err error) LoadResult {
	res.Duration = time.Since(start)
	res.LoadedAt = time.Now()
	res.Err = err

	tags := map[string]string{"format": string(res.Format)}

	if err != nil {
		res.Rows = 0
		msg := MapError(err)
		tags["code"] = msg.Code
		l.metrics.Incr("table.load.failure", tags)
		l.logger.Error("table load failed, serving empty table",
			"error", err,
			"error_code", msg.Code,
			"format", res.Format,
			"sheet", res.Sheet,
		)
		return res
	}

	l.metrics.Gauge("table.load.rows", float64(res.Rows), tags)
	l.metrics.Timing("table.load.duration", res.Duration, tags)
	l.logger.Info("table loaded",
		"rows", res.Rows,
		"bytes", res.Bytes,
		"format", res.Format,
		"sheet", res.Sheet,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}
