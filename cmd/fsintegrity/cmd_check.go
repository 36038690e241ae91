package main

import (
	"github.com/spf13/cobra"

	"github.com/meisterluk/fsintegrity/internal/action"
)

var flagCheckJSON bool

var checkCmd = &cobra.Command{
	Use:   "check <db> <root>",
	Short: "Scan root and diff it against an existing database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := action.Check(args[0], args[1], algo, nil, cfg.Workers, log)
		exitCode = action.ExitCode(res)
		if res.Err != nil {
			return res.Err
		}
		return printChanges(cmd, res.Changes, flagCheckJSON)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&flagCheckJSON, "json", false, "Emit changes as a JSON array instead of plain text")
	rootCmd.AddCommand(checkCmd)
}
