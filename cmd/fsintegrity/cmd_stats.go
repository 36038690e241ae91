package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meisterluk/fsintegrity/internal/action"
)

// statsCmd is adapted from the teacher's cli/cmd_stats.go /
// internals/statistics.go, re-grounded against a model.Database instead
// of the teacher's report-line stream (SPEC_FULL.md §12). Byte counts use
// github.com/dustin/go-humanize in place of the teacher's hand-rolled
// humanReadableBytes (internals/auxiliary.go).
var statsCmd = &cobra.Command{
	Use:   "stats <db>",
	Short: "Summarize a database container's contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, res := action.Stats(args[0], algo, log)
		exitCode = action.ExitCode(res)
		if res.Err != nil {
			return res.Err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "files:       %d\n", summary.Files)
		fmt.Fprintf(out, "directories: %d\n", summary.Directories)
		fmt.Fprintf(out, "symlinks:    %d\n", summary.Symlinks)
		fmt.Fprintf(out, "total size:  %s\n", humanize.Bytes(summary.TotalBytes))
		for id, count := range summary.AlgorithmCoverage {
			fmt.Fprintf(out, "  %s: %d file(s)\n", id, count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
