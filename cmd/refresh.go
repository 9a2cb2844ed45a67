package cmd

import (
	"errors"
	"fmt"

	"authflow/pkg/credentials"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a refresh of stored credentials",
	Long: `Force a refresh of the stored credentials for an endpoint.

This exchanges the stored refresh token for a new access token without
opening the browser. When no refresh token is stored, or the identity
provider rejects it, a new login is required.

Examples:
  authflow refresh                     # Refresh the default endpoint
  authflow refresh --endpoint staging  # Refresh a named endpoint`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, ep, err := resolveEndpoint()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	stored, err := store.Load(ep.Endpoint)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return fmt.Errorf("no stored credentials for %s, run: authflow login", ep.Endpoint)
		}
		return err
	}

	client, err := buildClient(cfg, ep, store)
	if err != nil {
		return err
	}

	refreshed, err := client.RefreshAccessToken(cmd.Context(), stored)
	if err != nil {
		return err
	}

	cliPrint("%s Credentials refreshed for %s\n", text.FgGreen.Sprint("✓"), ep.Endpoint)
	if !refreshed.ExpiresAt.IsZero() {
		cliPrint("  Expires:   %s\n", formatExpiryWithDirection(refreshed.ExpiresAt))
	}
	return nil
}
