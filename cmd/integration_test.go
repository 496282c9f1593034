package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags clears values and Changed state that persist across invocations
// of the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func tempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

const purchases = "Date,PurchaseAmount,Store\n" +
	"2023-01-01,100,north\n" +
	"2023-01-02,110,south\n" +
	"2023-01-03,120,north\n"

func TestCLI_AnalyzeMarkdown(t *testing.T) {
	home := tempHome(t)
	p := writeFile(t, home, "purchases.csv", purchases)

	out := runCmd(t, "analyze", p)
	for _, want := range []string{"[DATASET SUMMARY]", "[STATISTICS]", "[TREND]", "[HEAD]", "110.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("analyze output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_AnalyzeJSONToFile(t *testing.T) {
	home := tempHome(t)
	p := writeFile(t, home, "purchases.csv", purchases)
	outPath := filepath.Join(home, "out", "report.json")

	runCmd(t, "analyze", p, "--format", "json", "--head", "1", "-o", outPath)
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var rep struct {
		Rows  int        `json:"rows"`
		Head  [][]string `json:"head"`
		Trend struct {
			Slope    float64 `json:"slope"`
			RSquared float64 `json:"r_squared"`
		} `json:"trend"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Rows != 3 || len(rep.Head) != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if rep.Trend.Slope <= 0 || rep.Trend.RSquared < 0.999999 {
		t.Fatalf("unexpected trend: %+v", rep.Trend)
	}
}

func TestCLI_AnalyzeRejectsBadFormat(t *testing.T) {
	home := tempHome(t)
	p := writeFile(t, home, "purchases.csv", purchases)
	if _, err := execute(t, "analyze", p, "--format", "html"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestCLI_Validate(t *testing.T) {
	home := tempHome(t)
	good := writeFile(t, home, "good.csv", purchases)
	bad := writeFile(t, home, "bad.csv", "Date,PurchaseAmount\nnot-a-date,1\n")
	semi := writeFile(t, home, "semi.csv", "Date;PurchaseAmount\n2023-01-01;1\n")

	out := runCmd(t, "validate", good)
	if !strings.Contains(out, "3 rows, 3 columns") || !strings.Contains(out, "Store (text)") {
		t.Fatalf("unexpected validate output:\n%s", out)
	}

	_, err := execute(t, "validate", bad)
	if err == nil || !strings.Contains(err.Error(), "DateParseError") {
		t.Fatalf("expected DateParseError, got %v", err)
	}

	out = runCmd(t, "validate", semi, "--delimiter", ";")
	if !strings.Contains(out, "1 rows, 2 columns") {
		t.Fatalf("delimiter flag not applied:\n%s", out)
	}
}

func TestCLI_EditWritesCSV(t *testing.T) {
	home := tempHome(t)
	p := writeFile(t, home, "purchases.csv", purchases)
	outPath := filepath.Join(home, "edited.csv")

	runCmd(t, "edit", p, "--set", "0:PurchaseAmount=95", "--set", "2:Date=2023-02-01 09:00:00", "-o", outPath)
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read edited: %v", err)
	}
	want := "Date,PurchaseAmount,Store\n" +
		"2023-01-01 00:00:00,95,north\n" +
		"2023-01-02 00:00:00,110,south\n" +
		"2023-02-01 09:00:00,120,north\n"
	if string(b) != want {
		t.Fatalf("edited csv = %q, want %q", b, want)
	}
}

func TestCLI_EditIsAtomic(t *testing.T) {
	home := tempHome(t)
	p := writeFile(t, home, "purchases.csv", purchases)
	outPath := filepath.Join(home, "edited.csv")

	_, err := execute(t, "edit", p, "--set", "0:PurchaseAmount=95", "--set", "1:PurchaseAmount=lots", "-o", outPath)
	if err == nil || !strings.Contains(err.Error(), "row 1") {
		t.Fatalf("expected cell validation error naming row 1, got %v", err)
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Fatalf("output written despite failed commit: %v", err)
	}

	if _, err := execute(t, "edit", p, "--set", "PurchaseAmount=1"); err == nil {
		t.Fatalf("expected error for malformed --set")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := tempHome(t)
	runCmd(t, "config", "set", "head_rows", "3")
	runCmd(t, "config", "set", "log_format", "JSON")
	if _, err := os.Stat(filepath.Join(home, ".trendloom", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "head_rows: 3") || !strings.Contains(out, "log_format: json") {
		t.Fatalf("unexpected config show:\n%s", out)
	}

	if _, err := execute(t, "config", "set", "log_level", "loud"); err == nil {
		t.Fatalf("expected validation error for log_level")
	}
	if _, err := execute(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestParseCellEdit(t *testing.T) {
	row, col, val, err := parseCellEdit("4:Date=2023-01-01 10:00:00")
	if err != nil || row != 4 || col != "Date" || val != "2023-01-01 10:00:00" {
		t.Fatalf("parseCellEdit = %d %q %q %v", row, col, val, err)
	}
	for _, bad := range []string{"", "4:Date", "x:Date=1", "4:=1"} {
		if _, _, _, err := parseCellEdit(bad); err == nil {
			t.Errorf("parseCellEdit(%q) should fail", bad)
		}
	}
}
