package core

import "strings"

// AvailableKeys returns the first cell of every row in table order, for a
// choose-one list. Rows without a first cell, or with a blank one, are skipped.
func AvailableKeys(t Table) []string {
	keys := make([]string, 0, len(t))
	for _, row := range t {
		if k, ok := row.Key(); ok && k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// FindByKey returns the first row whose trimmed first cell equals the trimmed
// key. Matching is exact and case-sensitive. A miss is (nil, false).
func FindByKey(t Table, key string) (Row, bool) {
	key = strings.TrimSpace(key)
	for _, row := range t {
		if k, ok := row.Key(); ok && k == key {
			return row, true
		}
	}
	return nil, false
}

// Index is a read-only lookup over a Table. It answers exactly like
// FindByKey, including first-in-order wins for duplicate keys.
type Index struct {
	table Table
	keys  []string
	first map[string]int
}

// NewIndex builds an index over t. The table must not be modified afterwards.
func NewIndex(t Table) *Index {
	ix := &Index{
		table: t,
		keys:  AvailableKeys(t),
		first: make(map[string]int, len(t)),
	}
	for i, row := range t {
		k, ok := row.Key()
		if !ok {
			continue
		}
		if _, seen := ix.first[k]; !seen {
			ix.first[k] = i
		}
	}
	return ix
}

// Keys returns a copy of the selectable keys in table order.
func (ix *Index) Keys() []string {
	out := make([]string, len(ix.keys))
	copy(out, ix.keys)
	return out
}

// Find returns the first row with the given key.
func (ix *Index) Find(key string) (Row, bool) {
	i, ok := ix.first[strings.TrimSpace(key)]
	if !ok {
		return nil, false
	}
	return ix.table[i], true
}

// Len returns the number of rows in the underlying table.
func (ix *Index) Len() int { return len(ix.table) }

// Duplicates returns keys that appear on more than one row. Lookups resolve
// them to the first row; the list exists so operators can spot data issues.
func (ix *Index) Duplicates() []string {
	counts := make(map[string]int, len(ix.first))
	var dups []string
	for _, row := range ix.table {
		k, ok := row.Key()
		if !ok || k == "" {
			continue
		}
		counts[k]++
		if counts[k] == 2 {
			dups = append(dups, k)
		}
	}
	return dups
}
