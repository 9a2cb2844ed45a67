package cmd

import (
	"fmt"
	"time"

	"authflow/internal/auth"
	"authflow/internal/config"
	"authflow/pkg/credentials"

	"github.com/jedib0t/go-pretty/v6/text"
)

// cliPrint prints output only if the --quiet flag is not set. Use this
// for progress messages and non-essential output.
func cliPrint(format string, args ...interface{}) {
	if !flagQuiet {
		fmt.Printf(format, args...)
	}
}

// cliPrintln prints a line only if the --quiet flag is not set.
func cliPrintln(a ...interface{}) {
	if !flagQuiet {
		fmt.Println(a...)
	}
}

// loadConfig loads the configuration from --config-path or the default
// location.
func loadConfig() (config.Config, error) {
	path := flagConfigPath
	if path == "" {
		path = config.GetDefaultConfigPathOrPanic()
	}
	return config.LoadConfig(path)
}

// resolveEndpoint loads the configuration and resolves the endpoint named
// by --endpoint (or the configured default).
func resolveEndpoint() (config.Config, config.EndpointConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, config.EndpointConfig{}, err
	}

	ep, ok := cfg.Endpoint(flagEndpoint)
	if !ok {
		if flagEndpoint == "" {
			return config.Config{}, config.EndpointConfig{}, fmt.Errorf(
				"no endpoint selected: pass --endpoint or set default_endpoint in the config")
		}
		return config.Config{}, config.EndpointConfig{}, fmt.Errorf(
			"endpoint %q not found in the config", flagEndpoint)
	}

	return cfg, ep, nil
}

// openStore opens the credential store at --storage-dir or the default
// location.
func openStore() (credentials.Store, error) {
	store, err := credentials.NewFileStore(flagStorageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	return store, nil
}

// buildClient resolves the authorization client for an endpoint through
// the process-wide registry.
func buildClient(cfg config.Config, ep config.EndpointConfig, store credentials.Store) (*auth.AuthorizationClient, error) {
	return auth.New(auth.Options{
		Endpoint:      ep.Endpoint,
		AuthEndpoint:  ep.AuthEndpoint,
		TokenEndpoint: ep.TokenEndpoint,
		Scopes:        ep.Scopes,
		ClientID:      ep.ClientID,
		RedirectURI:   ep.RedirectURI,
		TLS: auth.TLSConfig{
			InsecureSkipVerify: ep.InsecureSkipVerify,
			CABundlePath:       ep.CABundle,
		},
		Timeout: cfg.CallbackTimeout.Duration(),
		Store:   store,
	})
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// formatExpiryWithDirection formats a time as "in X" or "expired X ago".
func formatExpiryWithDirection(expiresAt time.Time) string {
	remaining := time.Until(expiresAt)
	if remaining > 0 {
		return "in " + formatDuration(remaining)
	}
	expiredAgo := -remaining
	return text.FgYellow.Sprintf("expired %s ago", formatDuration(expiredAgo))
}
