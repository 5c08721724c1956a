package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the connection to the server",
		Long:  "Tests the connection to the server and reports whether its house list is loaded.",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	url, err := serverURL()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if _, err := fmt.Fprintf(out, "Server:  %s\n", url); err != nil {
		return err
	}

	c, err := newAPIClient()
	if err != nil {
		return err
	}
	h, err := c.Health(cmd.Context())
	switch {
	case err != nil:
		_, err = fmt.Fprintf(out, "Status:  ✗ cannot reach server (%v)\n", err)
	case !h.Loaded:
		_, err = fmt.Fprintln(out, "Status:  ✓ connected, house list not loaded yet")
	default:
		_, err = fmt.Fprintln(out, "Status:  ✓ connected")
	}
	return err
}
