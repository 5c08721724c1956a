package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a house",
		Long:  "Remove a house from the canvassing list and the store.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	id := args[0]

	c, err := newAPIClient()
	if err != nil {
		return err
	}

	if err := c.RemoveHouse(cmd.Context(), id); err != nil {
		return fmt.Errorf("removing house: %w", err)
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":      id,
			"removed": true,
		})
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "House %s removed.\n", id)
	return err
}
