package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Validate checks raw against the purchase schema and builds a Dataset.
// Any failure rejects the whole table; raw is never modified.
func Validate(raw *RawTable) (*Dataset, error) {
	if raw == nil {
		return nil, &SchemaError{Missing: []string{TimeColumn, AmountColumn}}
	}
	header := make([]string, len(raw.Header))
	seen := make(map[string]bool, len(raw.Header))
	for i, h := range raw.Header {
		h = cleanHeader(h)
		if seen[h] {
			return nil, &SchemaError{Reason: fmt.Sprintf("duplicate column %q", h)}
		}
		seen[h] = true
		header[i] = h
	}
	var missing []string
	for _, req := range []string{TimeColumn, AmountColumn} {
		if !seen[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	for i, row := range raw.Rows {
		if len(row) != len(header) {
			return nil, &SchemaError{Reason: fmt.Sprintf("row %d has %d fields, header has %d", i, len(row), len(header))}
		}
	}

	cols := make([]*Column, len(header))
	for j, name := range header {
		col, err := buildColumn(name, raw.Rows, j)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}
	return newDataset(cols, len(raw.Rows)), nil
}

func buildColumn(name string, rows [][]string, j int) (*Column, error) {
	switch name {
	case TimeColumn:
		times := make([]time.Time, len(rows))
		for i, row := range rows {
			t, ok := ParseTime(row[j])
			if !ok {
				return nil, &DateParseError{Row: i, Value: row[j]}
			}
			times[i] = t
		}
		return &Column{name: name, kind: Temporal, times: times}, nil
	case AmountColumn:
		nums := make([]float64, len(rows))
		for i, row := range rows {
			v, ok := parseOptionalNumber(row[j])
			if !ok {
				return nil, &TypeError{Row: i, Column: name, Value: row[j]}
			}
			nums[i] = v
		}
		return &Column{name: name, kind: Numeric, nums: nums}, nil
	}

	// Additional columns are numeric when every non-empty cell parses,
	// otherwise they are kept as opaque text.
	nums := make([]float64, len(rows))
	for i, row := range rows {
		v, ok := parseOptionalNumber(row[j])
		if !ok {
			texts := make([]string, len(rows))
			for k, r := range rows {
				texts[k] = strings.TrimSpace(r[j])
			}
			return &Column{name: name, kind: Text, texts: texts}, nil
		}
		nums[i] = v
	}
	return &Column{name: name, kind: Numeric, nums: nums}, nil
}

func cleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.TrimSpace(h)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04",
	TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

// ParseTime parses a calendar date with optional time of day. Values without
// a zone are taken as UTC; zoned values are converted to UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseOptionalNumber parses a float; empty text is a missing value (NaN).
func parseOptionalNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), true
	}
	return parseNumber(s)
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
