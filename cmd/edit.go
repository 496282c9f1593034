package cmd

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/trendloom/internal/dataset"
	"github.com/KaramelBytes/trendloom/internal/parser"
	"github.com/KaramelBytes/trendloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	editSets   []string
	editOutput string
	editSource sourceFlags
)

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Apply cell edits atomically and write the edited dataset as CSV",
	Long: `Apply one or more cell edits to a dataset. Edits are given as
--set row:column=value with 0-based data rows. Date cells require the
"YYYY-MM-DD HH:MM:SS" layout and every other cell must be a number. If any
edit is invalid nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(editSets) == 0 {
			return fmt.Errorf("at least one --set row:column=value is required")
		}
		opt, err := editSource.options()
		if err != nil {
			return err
		}
		ds, err := parser.LoadFile(args[0], opt)
		if err != nil {
			return err
		}

		session := dataset.BeginEdit(ds)
		for _, set := range editSets {
			row, column, value, err := parseCellEdit(set)
			if err != nil {
				return err
			}
			session.Stage(row, column, value)
		}
		staged := session.Staged()
		next, err := session.Commit()
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := parser.WriteCSV(&buf, next); err != nil {
			return err
		}
		if editOutput == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := utils.SafeWriteFile(editOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Applied %d edit(s); wrote %s\n", staged, editOutput)
		return nil
	},
}

// parseCellEdit splits "row:column=value".
func parseCellEdit(set string) (int, string, string, error) {
	target, value, ok := strings.Cut(set, "=")
	if !ok {
		return 0, "", "", fmt.Errorf("invalid --set %q: expected row:column=value", set)
	}
	rowText, column, ok := strings.Cut(target, ":")
	if !ok || strings.TrimSpace(column) == "" {
		return 0, "", "", fmt.Errorf("invalid --set %q: expected row:column=value", set)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowText))
	if err != nil {
		return 0, "", "", fmt.Errorf("invalid --set %q: row must be an integer", set)
	}
	return row, strings.TrimSpace(column), value, nil
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringArrayVar(&editSets, "set", nil, "cell edit as row:column=value (repeatable)")
	editCmd.Flags().StringVarP(&editOutput, "output", "o", "", "path to write the edited CSV (default stdout)")
	editSource.register(editCmd)
}
