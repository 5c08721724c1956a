package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <address>",
		Short: "Add a house by address",
		Long:  "Add a house to the canvassing list. It starts out Unvisited.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAdd,
	}
}

func runAdd(cmd *cobra.Command, args []string) error {
	address := strings.Join(args, " ")

	c, err := newAPIClient()
	if err != nil {
		return err
	}

	h, err := c.AddHouse(cmd.Context(), address)
	if err != nil {
		return fmt.Errorf("adding house: %w", err)
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), h)
	}

	if _, err := fmt.Fprintln(cmd.OutOrStdout(), "House added."); err != nil {
		return err
	}
	return printHouse(cmd.OutOrStdout(), h)
}
