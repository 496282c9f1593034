package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/trendloom/internal/config"
	"github.com/KaramelBytes/trendloom/internal/logging"
	"github.com/KaramelBytes/trendloom/internal/parser"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:           "trendloom",
	Short:         "Trendloom: purchase dataset statistics and trend analysis",
	Long:          `Trendloom validates purchase datasets (CSV, TSV, XLSX), computes descriptive statistics, fits a linear purchase-amount trend over time, applies validated cell edits, and serves the same operations over HTTP.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.trendloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands with built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = cfgpkg.Defaults()
		return
	}
	if err := c.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; using defaults\n", err)
		cfg = cfgpkg.Defaults()
		return
	}
	cfg = c
}

func config() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Defaults()
	}
	return cfg
}

func newLogger() *slog.Logger {
	c := config()
	level := c.LogLevel
	if debug {
		level = "debug"
	}
	return logging.New(os.Stderr, level, c.LogFormat)
}

// sourceFlags are shared by commands that read a dataset file.
type sourceFlags struct {
	delimiter  string
	sheetName  string
	sheetIndex int
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (default from extension)")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

// options merges flags over the configured defaults.
func (f *sourceFlags) options() (parser.Options, error) {
	c := config()
	opt := parser.Options{
		Delimiter:  c.DelimiterRune(),
		SheetName:  c.SheetName,
		SheetIndex: c.SheetIndex,
	}
	switch f.delimiter {
	case "":
	case "tab", "\t":
		opt.Delimiter = '\t'
	case ",", ";", "|":
		opt.Delimiter = rune(f.delimiter[0])
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	if f.sheetName != "" {
		opt.SheetName = f.sheetName
	}
	if f.sheetIndex > 0 {
		opt.SheetIndex = f.sheetIndex
	}
	return opt, nil
}
