package dataset

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var canonicalTimestamp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

type cellKey struct {
	row    int
	column string
}

// EditSession stages cell edits against a snapshot of a Dataset and commits
// them as a single unit. It is not safe for concurrent use.
type EditSession struct {
	base   *Dataset
	staged map[cellKey]string
}

// BeginEdit opens an edit session over ds.
func BeginEdit(ds *Dataset) *EditSession {
	return &EditSession{base: ds, staged: make(map[cellKey]string)}
}

// Base returns the snapshot the session edits.
func (s *EditSession) Base() *Dataset { return s.base }

// Stage records raw as the proposed text for (row, column). Staging the same
// cell again replaces the earlier proposal. Nothing is validated until Commit.
func (s *EditSession) Stage(row int, column, raw string) {
	s.staged[cellKey{row: row, column: column}] = raw
}

// Staged returns the number of staged cells.
func (s *EditSession) Staged() int { return len(s.staged) }

// Discard drops all staged cells.
func (s *EditSession) Discard() { clear(s.staged) }

// Commit validates every staged cell and returns a new Dataset with all of
// them applied. If any cell is invalid nothing is applied and the error is a
// *CellValidationError for the first offending cell in row, then column order.
// Derived columns are not carried over.
func (s *EditSession) Commit() (*Dataset, error) {
	type edit struct {
		key cellKey
		col int
		raw string
		val cellValue
	}
	edits := make([]edit, 0, len(s.staged))
	for k, raw := range s.staged {
		col, ok := s.base.index[k.column]
		if !ok {
			col = len(s.base.cols)
		}
		edits = append(edits, edit{key: k, col: col, raw: raw})
	}
	sort.Slice(edits, func(i, j int) bool {
		a, b := edits[i], edits[j]
		if a.key.row != b.key.row {
			return a.key.row < b.key.row
		}
		if a.col != b.col {
			return a.col < b.col
		}
		return a.key.column < b.key.column
	})

	for i := range edits {
		e := &edits[i]
		v, reason := s.checkCell(e.key, e.raw)
		if reason != "" {
			return nil, &CellValidationError{Row: e.key.row, Column: e.key.column, Value: e.raw, Reason: reason}
		}
		e.val = v
	}

	cols := s.base.withoutDerived()
	touched := make(map[string]*Column)
	for _, e := range edits {
		c, ok := touched[e.key.column]
		if !ok {
			src, _ := s.base.Column(e.key.column)
			c = src.clone()
			touched[e.key.column] = c
		}
		switch c.kind {
		case Temporal:
			c.times[e.key.row] = e.val.t
		case Numeric:
			c.nums[e.key.row] = e.val.f
		default:
			c.texts[e.key.row] = e.val.s
		}
	}
	for i, c := range cols {
		if nc, ok := touched[c.name]; ok {
			cols[i] = nc
		}
	}
	return newDataset(cols, s.base.rows), nil
}

// checkCell applies the edit-time type policy: the time column takes only the
// canonical timestamp, every other column takes a floating-point number.
func (s *EditSession) checkCell(k cellKey, raw string) (cellValue, string) {
	c, ok := s.base.Column(k.column)
	if !ok {
		return cellValue{}, "unknown column"
	}
	if c.derived {
		return cellValue{}, "derived columns are not editable"
	}
	if k.row < 0 || k.row >= s.base.rows {
		return cellValue{}, fmt.Sprintf("row out of range [0,%d)", s.base.rows)
	}
	text := strings.TrimSpace(raw)
	if c.kind == Temporal {
		if !canonicalTimestamp.MatchString(text) {
			return cellValue{}, "timestamp must use the YYYY-MM-DD HH:MM:SS format"
		}
		t, err := time.Parse(TimestampLayout, text)
		if err != nil {
			return cellValue{}, "timestamp is not a valid calendar time"
		}
		return cellValue{t: t}, ""
	}
	f, ok := parseNumber(text)
	if !ok {
		return cellValue{}, "value must be a number"
	}
	return cellValue{f: f, s: text}, ""
}
