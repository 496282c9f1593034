package dataset

import (
	"math"
	"strconv"
	"time"
)

// Kind is the uniform value type of a column.
type Kind int

const (
	Text Kind = iota
	Numeric
	Temporal
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Temporal:
		return "temporal"
	default:
		return "text"
	}
}

// Column is a named, uniformly typed sequence of values. Only the slice that
// matches Kind is populated. Columns are never modified after construction.
type Column struct {
	name    string
	kind    Kind
	derived bool
	times   []time.Time
	nums    []float64 // NaN marks a missing value
	texts   []string
}

func (c *Column) Name() string  { return c.name }
func (c *Column) Kind() Kind    { return c.kind }
func (c *Column) Derived() bool { return c.derived }

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch c.kind {
	case Temporal:
		return len(c.times)
	case Numeric:
		return len(c.nums)
	default:
		return len(c.texts)
	}
}

// Time returns the timestamp at row i. It panics on non-temporal columns.
func (c *Column) Time(i int) time.Time { return c.times[i] }

// Float returns the number at row i (NaN when missing). It panics on non-numeric columns.
func (c *Column) Float(i int) float64 { return c.nums[i] }

// Times returns a copy of the temporal values.
func (c *Column) Times() []time.Time {
	out := make([]time.Time, len(c.times))
	copy(out, c.times)
	return out
}

// Floats returns a copy of the numeric values.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.nums))
	copy(out, c.nums)
	return out
}

// Texts returns a copy of the text values.
func (c *Column) Texts() []string {
	out := make([]string, len(c.texts))
	copy(out, c.texts)
	return out
}

// String formats row i for display and export. Missing numbers render empty.
func (c *Column) String(i int) string {
	switch c.kind {
	case Temporal:
		return c.times[i].Format(TimestampLayout)
	case Numeric:
		v := c.nums[i]
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return c.texts[i]
	}
}

// clone returns a deep copy of c that is no longer marked derived.
func (c *Column) clone() *Column {
	out := &Column{name: c.name, kind: c.kind}
	switch c.kind {
	case Temporal:
		out.times = c.Times()
	case Numeric:
		out.nums = c.Floats()
	default:
		out.texts = c.Texts()
	}
	return out
}

type cellValue struct {
	t time.Time
	f float64
	s string
}
