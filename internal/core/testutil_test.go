package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// workbook builds an xlsx file whose first sheet holds rows.
func workbook(t *testing.T, rows [][]string, extra ...sheetRows) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	writeRows(t, f, "Sheet1", rows)
	for _, s := range extra {
		_, err := f.NewSheet(s.name)
		require.NoError(t, err)
		writeRows(t, f, s.name, s.rows)
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

type sheetRows struct {
	name string
	rows [][]string
}

func writeRows(t *testing.T, f *excelize.File, sheet string, rows [][]string) {
	t.Helper()
	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		vals := make([]interface{}, len(r))
		for j, v := range r {
			vals[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cell, &vals))
	}
}

// recordingSink collects pushed events.
type recordingSink struct {
	mu     sync.Mutex
	events []SelectionEvent
}

func (s *recordingSink) Push(_ context.Context, ev SelectionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) Events() []SelectionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SelectionEvent(nil), s.events...)
}

// countingPermission counts Request calls.
type countingPermission struct {
	granted  bool
	requests int
}

func (p *countingPermission) Granted(context.Context) bool { return p.granted }

func (p *countingPermission) Request(context.Context) { p.requests++ }
