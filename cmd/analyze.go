package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/trendloom/internal/analysis"
	"github.com/KaramelBytes/trendloom/internal/parser"
	"github.com/KaramelBytes/trendloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath string
	anaFormat     string
	anaHeadRows   int
	anaSource     sourceFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Validate a purchase dataset and report its statistics and trend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		popt, err := anaSource.options()
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		opt.HeadRows = config().HeadRows
		if cmd.Flags().Changed("head") {
			opt.HeadRows = anaHeadRows
		}

		ds, err := parser.LoadFile(path, popt)
		if err != nil {
			return err
		}
		rep := analysis.BuildReport(filepath.Base(path), ds, opt)

		var out []byte
		switch strings.ToLower(anaFormat) {
		case "md", "markdown":
			out = []byte(rep.Markdown())
		case "json":
			b, err := utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
			out = append(b, '\n')
		default:
			return fmt.Errorf("unsupported --format: %s (use md|json)", anaFormat)
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "md", "report format: md | json")
	analyzeCmd.Flags().IntVar(&anaHeadRows, "head", 5, "number of leading rows to include (default from config)")
	anaSource.register(analyzeCmd)
}
