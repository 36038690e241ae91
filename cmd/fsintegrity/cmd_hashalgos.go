package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meisterluk/fsintegrity/internal/action"
)

// hashalgosCmd is adapted from the teacher's cli/cmd_hashalgos.go,
// listing the compiled-in registry instead of the teacher's fifteen
// legacy digest families (SPEC_FULL.md §12).
var hashalgosCmd = &cobra.Command{
	Use:   "hashalgos",
	Short: "List the compiled-in digest algorithms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range action.ListAlgorithms() {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashalgosCmd)
}
