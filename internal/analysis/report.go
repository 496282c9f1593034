package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/trendloom/internal/dataset"
)

// Options controls report assembly.
type Options struct {
	// HeadRows determines how many leading rows to include in the report.
	HeadRows int
}

// DefaultOptions returns reasonable defaults for reports.
func DefaultOptions() Options {
	return Options{HeadRows: 5}
}

// Report bundles the statistics and trend of a dataset for display.
type Report struct {
	Name    string      `json:"name,omitempty"`
	Rows    int         `json:"rows"`
	Columns []string    `json:"columns"`
	Stats   Summary     `json:"statistics"`
	Trend   *Regression `json:"trend,omitempty"`
	// TrendError explains why Trend is nil.
	TrendError string     `json:"trend_error,omitempty"`
	Head       [][]string `json:"head,omitempty"`
}

// BuildReport summarizes ds and fits its trend. A failed fit is recorded in
// TrendError rather than returned, since the statistics are still useful.
func BuildReport(name string, ds *dataset.Dataset, opt Options) *Report {
	rep := &Report{
		Name:    name,
		Rows:    ds.Rows(),
		Columns: ds.Names(),
		Stats:   Summarize(ds),
	}
	if reg, err := FitTrend(ds); err != nil {
		rep.TrendError = err.Error()
	} else {
		rep.Trend = reg
	}
	if opt.HeadRows > 0 {
		rep.Head = ds.Head(opt.HeadRows)
	}
	return rep
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Columns)))

	b.WriteString("[STATISTICS]\n")
	for _, c := range r.Stats.Columns {
		name := safeName(c.Name)
		if c.Derived {
			name += " (derived)"
		}
		b.WriteString(fmt.Sprintf("- %s: %s (count %d", name, c.Kind, c.Count))
		if c.Missing > 0 {
			b.WriteString(fmt.Sprintf(", missing %d", c.Missing))
		}
		b.WriteString(")")
		switch c.Kind {
		case "numeric":
			if c.Count > 0 {
				b.WriteString(fmt.Sprintf(" — mean %s, std %s, min %s, 25%% %s, 50%% %s, 75%% %s, max %s",
					c.Mean, c.Std, c.Min, c.Q25, c.Q50, c.Q75, c.Max))
			}
		case "temporal":
			if c.Count > 0 {
				b.WriteString(fmt.Sprintf(" — from %s to %s", c.Min, c.Max))
			}
		default:
			b.WriteString(fmt.Sprintf(" — unique=%d", c.Unique))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n[TREND]\n")
	if r.Trend != nil {
		b.WriteString(fmt.Sprintf("- %s ~ %s over %d rows\n", dataset.AmountColumn, dataset.TimeColumn, r.Trend.Points))
		b.WriteString(fmt.Sprintf("- slope: %.6g per second (%.4f per day)\n", r.Trend.Slope, r.Trend.SlopePerDay()))
		b.WriteString(fmt.Sprintf("- intercept: %.6g\n", r.Trend.Intercept))
		b.WriteString(fmt.Sprintf("- r_squared: %.4f\n", r.Trend.RSquared))
	} else {
		b.WriteString(fmt.Sprintf("- not available: %s\n", r.TrendError))
	}

	if len(r.Head) > 0 {
		b.WriteString("\n[HEAD]\n")
		b.WriteString("| ")
		for i, c := range r.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c))
		}
		b.WriteString(" |\n")
		b.WriteString("| ")
		for i := range r.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Head {
			b.WriteString("| ")
			for i := range r.Columns {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
