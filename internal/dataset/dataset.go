package dataset

import (
	"errors"
	"fmt"
)

// Schema constants.
const (
	TimeColumn      = "Date"
	AmountColumn    = "PurchaseAmount"
	TimestampColumn = "TimestampSeconds"
	TrendColumn     = "Trend"

	// TimestampLayout is the canonical timestamp text, used for display, export and edits.
	TimestampLayout = "2006-01-02 15:04:05"
)

// RawTable is an unvalidated table of named columns with row-aligned cell text.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Dataset is a validated, immutable in-memory table. Column order follows the
// source file; row order is upload order.
type Dataset struct {
	cols  []*Column
	index map[string]int
	rows  int
}

func newDataset(cols []*Column, rows int) *Dataset {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c.name] = i
	}
	return &Dataset{cols: cols, index: idx, rows: rows}
}

// Rows returns the fixed row count.
func (d *Dataset) Rows() int { return d.rows }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.name
	}
	return out
}

// Columns returns the columns in order. The slice is a copy; columns are read-only.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.cols))
	copy(out, d.cols)
	return out
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.cols[i], true
}

// Cell returns the display text at (row, column).
func (d *Dataset) Cell(row int, name string) (string, error) {
	c, ok := d.Column(name)
	if !ok {
		return "", fmt.Errorf("unknown column %q", name)
	}
	if row < 0 || row >= d.rows {
		return "", fmt.Errorf("row %d out of range [0,%d)", row, d.rows)
	}
	return c.String(row), nil
}

// Head returns up to n leading rows as display text.
func (d *Dataset) Head(n int) [][]string {
	if n < 0 || n > d.rows {
		n = d.rows
	}
	return d.records(n)
}

// Records returns every row as display text.
func (d *Dataset) Records() [][]string { return d.records(d.rows) }

func (d *Dataset) records(n int) [][]string {
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(d.cols))
		for j, c := range d.cols {
			row[j] = c.String(i)
		}
		out[i] = row
	}
	return out
}

// WithColumn returns a new Dataset with a derived numeric column added, or
// replaced if a column of that name exists. The receiver is not modified.
func (d *Dataset) WithColumn(name string, values []float64) (*Dataset, error) {
	if name == "" {
		return nil, errors.New("column name is empty")
	}
	if name == TimeColumn || name == AmountColumn {
		return nil, fmt.Errorf("column %q is part of the schema and cannot be replaced", name)
	}
	if len(values) != d.rows {
		return nil, fmt.Errorf("column %q has %d values, dataset has %d rows", name, len(values), d.rows)
	}
	nums := make([]float64, len(values))
	copy(nums, values)
	col := &Column{name: name, kind: Numeric, derived: true, nums: nums}

	cols := make([]*Column, len(d.cols), len(d.cols)+1)
	copy(cols, d.cols)
	if i, ok := d.index[name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return newDataset(cols, d.rows), nil
}

// withoutDerived returns the source-of-truth columns only.
func (d *Dataset) withoutDerived() []*Column {
	out := make([]*Column, 0, len(d.cols))
	for _, c := range d.cols {
		if !c.derived {
			out = append(out, c)
		}
	}
	return out
}
