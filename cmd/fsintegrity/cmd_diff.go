package main

import (
	"github.com/spf13/cobra"

	"github.com/meisterluk/fsintegrity/internal/action"
)

var flagDiffJSON bool

// diffCmd intentionally does not reproduce the teacher's Unicode
// tree-drawing diff visualizer (cli/cmd_diff.go in the original): spec §1
// places "terminal output formatting of diff reports" out of this
// project's core scope. Output here is either one line of text per
// change or a single JSON array (SPEC_FULL.md §12).
var diffCmd = &cobra.Command{
	Use:   "diff <dbA> <dbB>",
	Short: "Compare two database containers",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := action.Diff(args[0], args[1], algo, log)
		exitCode = action.ExitCode(res)
		if res.Err != nil {
			return res.Err
		}
		return printChanges(cmd, res.Changes, flagDiffJSON)
	},
}

func init() {
	diffCmd.Flags().BoolVar(&flagDiffJSON, "json", false, "Emit changes as a JSON array instead of plain text")
	rootCmd.AddCommand(diffCmd)
}
