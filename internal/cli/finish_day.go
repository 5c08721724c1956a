package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFinishDayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finish-day",
		Short: "Reset unanswered houses for the next session",
		Long:  "Set every No Answer house back to Unvisited, then reload the list.",
		Args:  cobra.NoArgs,
		RunE:  runFinishDay,
	}
}

func runFinishDay(cmd *cobra.Command, args []string) error {
	c, err := newAPIClient()
	if err != nil {
		return err
	}

	sum, err := c.FinishDay(cmd.Context())
	if err != nil {
		return fmt.Errorf("finishing day: %w", err)
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), sum)
	}
	return printSummary(cmd.OutOrStdout(), sum)
}

func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the active houses from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			st, err := c.Reload(cmd.Context())
			if err != nil {
				return fmt.Errorf("reloading: %w", err)
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), st)
			}
			return printHouseTable(cmd.OutOrStdout(), st)
		},
	}
}
