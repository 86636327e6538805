package core

import "strings"

// Row is one spreadsheet row: trimmed cell text in column order.
// Rows have no fixed arity; read cells through CellAt.
type Row []string

// CellAt returns the cell at index i. Out-of-range indices are absent, not
// an error.
func (r Row) CellAt(i int) (string, bool) {
	if i < 0 || i >= len(r) {
		return "", false
	}
	return r[i], true
}

// Cell is CellAt with absent cells rendered as "".
func (r Row) Cell(i int) string {
	v, _ := r.CellAt(i)
	return v
}

// Key returns the trimmed first cell, the range designation.
func (r Row) Key() (string, bool) {
	v, ok := r.CellAt(0)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Table is the loaded sheet in file order. A nil Table is a valid empty table.
type Table []Row

// Len returns the number of rows.
func (t Table) Len() int { return len(t) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t) == 0 }

// normalizeRows trims every cell and drops rows whose cells are all blank.
// When skipHeader is set the first surviving row is dropped as well.
func normalizeRows(raw [][]string, skipHeader bool) Table {
	table := make(Table, 0, len(raw))
	headerSkipped := !skipHeader

	for _, cells := range raw {
		row := make(Row, len(cells))
		blank := true
		for i, c := range cells {
			row[i] = strings.TrimSpace(c)
			if row[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if !headerSkipped {
			headerSkipped = true
			continue
		}
		table = append(table, row)
	}

	return table
}
