package parser

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/trendloom/internal/dataset"
)

func TestParseCSV(t *testing.T) {
	content := "Date,PurchaseAmount,Store\n" +
		"2023-01-01, 100,north\n" +
		"2023-01-02,110\n" +
		"\n" +
		"2023-01-03,120,south\n"
	raw, err := Parse("purchases.csv", strings.NewReader(content), Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(raw.Header, []string{"Date", "PurchaseAmount", "Store"}) {
		t.Fatalf("header = %#v", raw.Header)
	}
	if len(raw.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(raw.Rows))
	}
	if !reflect.DeepEqual(raw.Rows[0], []string{"2023-01-01", "100", "north"}) {
		t.Fatalf("row 0 = %#v", raw.Rows[0])
	}
	// Short rows are padded to the header width.
	if !reflect.DeepEqual(raw.Rows[1], []string{"2023-01-02", "110", ""}) {
		t.Fatalf("row 1 = %#v", raw.Rows[1])
	}
}

func TestParseTSVAndExplicitDelimiter(t *testing.T) {
	raw, err := Parse("p.tsv", strings.NewReader("Date\tPurchaseAmount\n2023-01-01\t5\n"), Options{})
	if err != nil {
		t.Fatalf("parse tsv: %v", err)
	}
	if len(raw.Header) != 2 || raw.Rows[0][1] != "5" {
		t.Fatalf("unexpected tsv parse: %#v", raw)
	}
	raw, err = Parse("p.csv", strings.NewReader("Date;PurchaseAmount\n2023-01-01;5\n"), Options{Delimiter: ';'})
	if err != nil {
		t.Fatalf("parse semicolon: %v", err)
	}
	if len(raw.Header) != 2 || raw.Rows[0][1] != "5" {
		t.Fatalf("unexpected semicolon parse: %#v", raw)
	}
}

func TestParseEmptyCSV(t *testing.T) {
	raw, err := Parse("empty.csv", strings.NewReader(""), Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(raw.Header) != 0 || len(raw.Rows) != 0 {
		t.Fatalf("expected empty table, got %#v", raw)
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	ds, err := dataset.Validate(&dataset.RawTable{
		Header: []string{"Date", "PurchaseAmount", "Note"},
		Rows: [][]string{
			{"2023-01-01", "100.5", "a, b"},
			{"2023-01-02 12:30:00", "", "c"},
		},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, ds); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "Date,PurchaseAmount,Note\n" +
		"2023-01-01 00:00:00,100.5,\"a, b\"\n" +
		"2023-01-02 12:30:00,,c\n"
	if buf.String() != want {
		t.Fatalf("csv = %q, want %q", buf.String(), want)
	}
	raw, err := Parse("again.csv", &buf, Options{})
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	again, err := dataset.Validate(raw)
	if err != nil {
		t.Fatalf("revalidate: %v", err)
	}
	if !reflect.DeepEqual(again.Records(), ds.Records()) {
		t.Fatalf("records differ after round trip")
	}
}
