// Package cli defines the cobra command tree for curbing.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/curbing/internal/client"
	"github.com/evcraddock/curbing/internal/config"
)

var (
	flagFormat string
	flagConfig string
	flagServer string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "curb",
		Short:         "Track door-to-door canvassing visits",
		Long:          "A tool to track door-to-door canvassing. Add addresses, mark each visit's outcome, and reset unanswered doors at the end of the day.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ~/.config/curbing/config.yaml)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "server URL (overrides config)")

	root.AddCommand(
		newServeCmd(),
		newListCmd(),
		newAddCmd(),
		newMarkCmd(),
		newRemoveCmd(),
		newFinishDayCmd(),
		newReloadCmd(),
		newStatusCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	root.AddCommand(newShortcutCmds()...)

	return root
}

// loadConfig loads configuration from the --config path or the default.
func loadConfig() (config.Config, error) {
	return config.Load(flagConfig)
}

// serverURL returns the --server flag, or the configured server URL.
func serverURL() (string, error) {
	if flagServer != "" {
		return flagServer, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.ServerURL, nil
}

// newAPIClient creates an HTTP client for the curbing API.
func newAPIClient() (*client.Client, error) {
	url, err := serverURL()
	if err != nil {
		return nil, err
	}
	return client.New(url), nil
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
