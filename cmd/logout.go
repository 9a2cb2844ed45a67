package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// Logout-specific flags
var logoutAll bool

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear stored credentials",
	Long: `Clear stored credentials.

This removes cached tokens, requiring a new browser login on the next
connection to the endpoint.

Examples:
  authflow logout                      # Logout from the default endpoint
  authflow logout --endpoint staging   # Logout from a named endpoint
  authflow logout --all                # Clear credentials for every configured endpoint`,
	RunE: runLogout,
}

func init() {
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Clear credentials for every configured endpoint")
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	if logoutAll {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		for _, ep := range cfg.Endpoints {
			if err := store.Clear(ep.Endpoint); err != nil {
				return fmt.Errorf("failed to clear credentials for %s: %w", ep.Name, err)
			}
		}
		cliPrint("%s Cleared credentials for %d endpoint(s)\n", text.FgGreen.Sprint("✓"), len(cfg.Endpoints))
		return nil
	}

	_, ep, err := resolveEndpoint()
	if err != nil {
		return err
	}

	if err := store.Clear(ep.Endpoint); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	cliPrint("%s Logged out from %s\n", text.FgGreen.Sprint("✓"), ep.Endpoint)
	return nil
}
