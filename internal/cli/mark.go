package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/curbing/internal/house"
)

func newMarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <id> <status>",
		Short: "Set a house's visit status",
		Long:  `Set a house's visit status. Status is one of Unvisited, Accepted, Declined or "No Answer" (case and separators are ignored, so no_answer works).`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := house.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return runMark(cmd, args[0], status)
		},
	}
}

// newShortcutCmds returns one command per status, e.g. "curb accept <id>".
func newShortcutCmds() []*cobra.Command {
	shortcuts := []struct {
		use    string
		status house.Status
	}{
		{"accept", house.StatusAccepted},
		{"decline", house.StatusDeclined},
		{"no-answer", house.StatusNoAnswer},
		{"unvisit", house.StatusUnvisited},
	}

	cmds := make([]*cobra.Command, 0, len(shortcuts))
	for _, s := range shortcuts {
		cmds = append(cmds, &cobra.Command{
			Use:   s.use + " <id>",
			Short: fmt.Sprintf("Mark a house %s", s.status),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMark(cmd, args[0], s.status)
			},
		})
	}
	return cmds
}

func runMark(cmd *cobra.Command, id string, status house.Status) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	st, err := c.SetStatus(cmd.Context(), id, status)
	if err != nil {
		return fmt.Errorf("marking %s: %w", id, err)
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), st)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "House %s marked %s.\n", id, status)
	return err
}
