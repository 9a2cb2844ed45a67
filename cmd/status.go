package cmd

import (
	"errors"

	"authflow/internal/config"
	"authflow/pkg/credentials"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show credential status",
	Long: `Show the stored credential status for configured endpoints.

This command displays which endpoints have stored credentials, when the
access tokens expire, and whether silent refresh is possible.

Examples:
  authflow status                      # Show all configured endpoints
  authflow status --endpoint staging   # Show one endpoint`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	if flagEndpoint != "" {
		ep, ok := cfg.Endpoint(flagEndpoint)
		if !ok {
			return errors.New("endpoint " + flagEndpoint + " not found in the config")
		}
		printEndpointStatus(ep, store)
		return nil
	}

	if len(cfg.Endpoints) == 0 {
		cliPrintln("No endpoints configured.")
		return nil
	}

	for i, ep := range cfg.Endpoints {
		if i > 0 {
			cliPrintln()
		}
		printEndpointStatus(ep, store)
	}
	return nil
}

func printEndpointStatus(ep config.EndpointConfig, store credentials.Store) {
	cliPrintln(ep.Name)
	cliPrint("  Endpoint:  %s\n", ep.Endpoint)

	stored, err := store.Load(ep.Endpoint)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			cliPrint("  Status:    %s\n", text.FgYellow.Sprint("Not authenticated"))
			cliPrint("             Run: authflow login --endpoint %s\n", ep.Name)
			return
		}
		cliPrint("  Status:    %s\n", text.FgRed.Sprintf("Error reading credentials: %v", err))
		return
	}

	if stored.IsExpired() {
		cliPrint("  Status:    %s\n", text.FgYellow.Sprint("Expired"))
	} else {
		cliPrint("  Status:    %s\n", text.FgGreen.Sprint("Authenticated"))
	}
	if !stored.ExpiresAt.IsZero() {
		cliPrint("  Expires:   %s\n", formatExpiryWithDirection(stored.ExpiresAt))
	}
	if stored.HasRefreshToken() {
		cliPrint("  Refresh:   %s\n", text.FgGreen.Sprint("Available"))
	} else {
		cliPrint("  Refresh:   %s\n", text.FgYellow.Sprint("Not available (re-auth required on expiry)"))
	}
}
