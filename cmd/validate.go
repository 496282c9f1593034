package cmd

import (
	"fmt"

	"github.com/KaramelBytes/trendloom/internal/dataset"
	"github.com/KaramelBytes/trendloom/internal/parser"
	"github.com/spf13/cobra"
)

var valSource sourceFlags

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a file is a valid purchase dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := valSource.options()
		if err != nil {
			return err
		}
		ds, err := parser.LoadFile(args[0], opt)
		if err != nil {
			if kind := dataset.KindOf(err); kind != dataset.KindUnknown {
				return fmt.Errorf("%s: %w", kind, err)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d rows, %d columns\n", args[0], ds.Rows(), len(ds.Names()))
		for _, c := range ds.Columns() {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s (%s)\n", c.Name(), c.Kind())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	valSource.register(validateCmd)
}
