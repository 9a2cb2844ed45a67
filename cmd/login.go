package cmd

import (
	"context"
	"errors"
	"time"

	"authflow/internal/auth"
	"authflow/internal/config"
	"authflow/pkg/credentials"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// Login-specific flags
var loginForce bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate to an endpoint via the browser",
	Long: `Authenticate to a configured endpoint.

When valid credentials are already stored they are reused; an expired
access token with a stored refresh token is refreshed silently. Only when
neither works does this command open your browser for a full
authorization flow.

Examples:
  authflow login                       # Login to the default endpoint
  authflow login --endpoint staging    # Login to a named endpoint
  authflow login --force               # Skip stored credentials entirely`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().BoolVar(&loginForce, "force", false, "Ignore stored credentials and run a full browser flow")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, ep, err := resolveEndpoint()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	client, err := buildClient(cfg, ep, store)
	if err != nil {
		return err
	}

	if !loginForce {
		if creds, ok := tryStoredCredentials(ctx, client, store, ep.Endpoint); ok {
			printLoginSuccess(ep, creds)
			return nil
		}
	}

	creds, err := runBrowserFlow(ctx, client)
	if err != nil {
		return err
	}

	printLoginSuccess(ep, creds)
	return nil
}

// tryStoredCredentials attempts to satisfy the login from the store:
// still-valid credentials are used as-is, expired ones are refreshed.
// Any failure falls through to the interactive flow.
func tryStoredCredentials(ctx context.Context, client *auth.AuthorizationClient, store credentials.Store, endpoint string) (*credentials.Credentials, bool) {
	stored, err := store.Load(endpoint)
	if err != nil {
		if !errors.Is(err, credentials.ErrNotFound) {
			cliPrint("Warning: could not read stored credentials: %v\n", err)
		}
		return nil, false
	}

	if !stored.IsExpired() {
		cliPrintln("Using stored credentials.")
		return stored, true
	}

	if !stored.HasRefreshToken() {
		return nil, false
	}

	refreshed, err := client.RefreshAccessToken(ctx, stored)
	if err != nil {
		cliPrint("Stored credentials expired and refresh failed: %v\n", err)
		return nil, false
	}

	cliPrintln("Refreshed stored credentials.")
	return refreshed, true
}

// runBrowserFlow drives the interactive authorization flow with a
// progress spinner.
func runBrowserFlow(ctx context.Context, client *auth.AuthorizationClient) (*credentials.Credentials, error) {
	cliPrintln("Opening browser for authentication...")

	if flagQuiet {
		return client.GetCredsFromRemote(ctx)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Waiting for authorization in your browser..."
	s.Start()
	defer s.Stop()

	creds, err := client.GetCredsFromRemote(ctx)
	if err != nil {
		s.FinalMSG = text.FgRed.Sprint("Authorization failed") + "\n"
		return nil, err
	}

	return creds, nil
}

func printLoginSuccess(ep config.EndpointConfig, creds *credentials.Credentials) {
	cliPrint("%s Authenticated to %s\n", text.FgGreen.Sprint("✓"), ep.Endpoint)
	if !creds.ExpiresAt.IsZero() {
		cliPrint("  Expires:   %s\n", formatExpiryWithDirection(creds.ExpiresAt))
	}
	if creds.HasRefreshToken() {
		cliPrint("  Refresh:   %s\n", text.FgGreen.Sprint("Available"))
	} else {
		cliPrint("  Refresh:   %s\n", text.FgYellow.Sprint("Not available (re-auth required on expiry)"))
	}
}
