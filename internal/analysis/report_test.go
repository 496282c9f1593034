package analysis

import (
	"strings"
	"testing"
)

func TestBuildReportAndMarkdown(t *testing.T) {
	ds := mustDataset(t,
		[]string{"2023-01-01", "100"},
		[]string{"2023-01-02", "110"},
		[]string{"2023-01-03", "120"},
	)
	opt := DefaultOptions()
	opt.HeadRows = 2
	rep := BuildReport("purchases.csv", ds, opt)
	if rep.Trend == nil {
		t.Fatalf("expected trend, got error %q", rep.TrendError)
	}
	if len(rep.Head) != 2 {
		t.Fatalf("head = %d rows, want 2", len(rep.Head))
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: purchases.csv",
		"Rows: 3",
		"- PurchaseAmount: numeric (count 3) — mean 110.00, std 10.00, min 100.00",
		"- Date: temporal (count 3) — from 2023-01-01 00:00:00 to 2023-01-03 00:00:00",
		"[TREND]",
		"(10.0000 per day)",
		"- r_squared: 1.0000",
		"[HEAD]",
		"| Date | PurchaseAmount |",
		"| 2023-01-02 00:00:00 | 110 |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "2023-01-03 00:00:00 | 120") {
		t.Fatalf("head should be limited to 2 rows:\n%s", md)
	}
}

func TestReportRecordsTrendFailure(t *testing.T) {
	ds := mustDataset(t, []string{"2023-01-01", "100"})
	rep := BuildReport("", ds, Options{})
	if rep.Trend != nil {
		t.Fatalf("expected no trend")
	}
	md := rep.Markdown()
	if !strings.Contains(md, "- not available: insufficient data for a trend") {
		t.Fatalf("markdown missing trend failure: %s", md)
	}
	if strings.Contains(md, "[HEAD]") {
		t.Fatalf("head section should be omitted: %s", md)
	}
	if strings.Contains(md, "File:") {
		t.Fatalf("file line should be omitted for unnamed reports: %s", md)
	}
}
