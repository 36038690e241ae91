package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meisterluk/fsintegrity/internal/action"
)

var flagForce bool

var buildCmd = &cobra.Command{
	Use:   "build <db> <root>",
	Short: "Scan root and write a new database container",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := action.Build(args[0], args[1], algo, flagForce, nil, cfg.Workers, log)
		exitCode = action.ExitCode(res)
		if res.Err != nil {
			return res.Err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (run %s)\n", args[0], res.CorrelationID)
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Overwrite an existing database file")
	rootCmd.AddCommand(buildCmd)
}
