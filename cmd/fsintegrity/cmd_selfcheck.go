package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meisterluk/fsintegrity/internal/action"
)

var selfcheckCmd = &cobra.Command{
	Use:   "selfcheck <db>",
	Short: "Verify a database container's outer checksums",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := action.SelfCheck(args[0], algo, log)
		exitCode = action.ExitCode(res)
		if res.Err != nil {
			return res.Err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (run %s)\n", args[0], res.CorrelationID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selfcheckCmd)
}
