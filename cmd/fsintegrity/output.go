package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/meisterluk/fsintegrity/internal/diff"
)

// changeJSON is the --json export shape for one diff.Change
// (SPEC_FULL.md §12: a scriptable alternative to the teacher's Unicode
// tree visualizer, which is out of this project's scope).
type changeJSON struct {
	Path        string `json:"path"`
	Kind        string `json:"kind"`
	Class       string `json:"class"`
	Truncated   bool   `json:"truncated,omitempty"`
	NulAppeared bool   `json:"nul_appeared,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

func printChanges(cmd *cobra.Command, changes []diff.Change, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return writeChangesJSON(out, changes)
	}
	for _, c := range changes {
		line := fmt.Sprintf("%s %s [%s]", c.Kind, c.Path, c.Class)
		if c.Truncated {
			line += " truncated"
		}
		if c.NulAppeared {
			line += " nul_appeared"
		}
		if c.Reason != "" {
			line += " reason=" + c.Reason
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func writeChangesJSON(out io.Writer, changes []diff.Change) error {
	records := make([]changeJSON, len(changes))
	for i, c := range changes {
		records[i] = changeJSON{
			Path:        c.Path,
			Kind:        string(c.Kind),
			Class:       string(c.Class),
			Truncated:   c.Truncated,
			NulAppeared: c.NulAppeared,
			Reason:      c.Reason,
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
