package analysis

import (
	"math"
	"sort"
	"strconv"

	"github.com/KaramelBytes/trendloom/internal/dataset"
)

// Summary holds descriptive statistics for every column, in dataset column order.
type Summary struct {
	Rows    int           `json:"rows"`
	Columns []ColumnStats `json:"columns"`
}

// Column returns the statistics of the named column.
func (s Summary) Column(name string) (ColumnStats, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnStats{}, false
}

// ColumnStats is a per-column summary. Numeric fields are preformatted with two
// decimals. Which fields are set depends on Kind:
//   - numeric: Count, Missing, Mean, Std, Min, Q25, Q50, Q75, Max
//   - temporal: Count, Min, Max (formatted timestamps)
//   - text: Count and Unique, the number of distinct non-empty values
type ColumnStats struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Derived bool   `json:"derived,omitempty"`
	Count   int    `json:"count"`
	Missing int    `json:"missing,omitempty"`
	Unique  int    `json:"unique,omitempty"`
	Mean    string `json:"mean,omitempty"`
	Std     string `json:"std,omitempty"`
	Min     string `json:"min,omitempty"`
	Q25     string `json:"25%,omitempty"`
	Q50     string `json:"50%,omitempty"`
	Q75     string `json:"75%,omitempty"`
	Max     string `json:"max,omitempty"`
}

// Summarize computes descriptive statistics for ds. It is a pure function of
// the dataset content.
func Summarize(ds *dataset.Dataset) Summary {
	cols := ds.Columns()
	out := Summary{Rows: ds.Rows(), Columns: make([]ColumnStats, 0, len(cols))}
	for _, c := range cols {
		s := ColumnStats{Name: c.Name(), Kind: c.Kind().String(), Derived: c.Derived()}
		switch c.Kind() {
		case dataset.Temporal:
			summarizeTimes(&s, c)
		case dataset.Numeric:
			summarizeNumbers(&s, c.Floats())
		default:
			summarizeTexts(&s, c.Texts())
		}
		out.Columns = append(out.Columns, s)
	}
	return out
}

// Mean, std and quartiles are not meaningful for calendar dates and stay empty.
func summarizeTimes(s *ColumnStats, c *dataset.Column) {
	times := c.Times()
	s.Count = len(times)
	if len(times) == 0 {
		return
	}
	lo, hi := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(lo) {
			lo = t
		}
		if t.After(hi) {
			hi = t
		}
	}
	s.Min = lo.Format(dataset.TimestampLayout)
	s.Max = hi.Format(dataset.TimestampLayout)
}

func summarizeNumbers(s *ColumnStats, vals []float64) {
	present := make([]float64, 0, len(vals))
	for _, v := range vals {
		if math.IsNaN(v) {
			s.Missing++
			continue
		}
		present = append(present, v)
	}
	s.Count = len(present)
	if len(present) == 0 {
		return
	}

	// Welford update
	var n int
	var mean, m2 float64
	for _, x := range present {
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}
	std := math.NaN()
	if n > 1 {
		std = math.Sqrt(m2 / float64(n-1))
	}

	sort.Float64s(present)
	s.Mean = format2(mean)
	s.Std = format2(std)
	s.Min = format2(present[0])
	s.Q25 = format2(quantile(present, 0.25))
	s.Q50 = format2(quantile(present, 0.5))
	s.Q75 = format2(quantile(present, 0.75))
	s.Max = format2(present[len(present)-1])
}

func summarizeTexts(s *ColumnStats, vals []string) {
	uniq := make(map[string]struct{})
	for _, v := range vals {
		if v == "" {
			s.Missing++
			continue
		}
		s.Count++
		uniq[v] = struct{}{}
	}
	s.Unique = len(uniq)
}

func format2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// quantile interpolates linearly between closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
