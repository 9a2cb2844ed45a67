package config

import (
	"fmt"
	"net/url"
)

// Validate checks structural consistency of the loaded configuration.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Endpoints))

	for i, ep := range c.Endpoints {
		if ep.Name == "" {
			return fmt.Errorf("endpoints[%d]: name is required", i)
		}
		if seen[ep.Name] {
			return fmt.Errorf("endpoints[%d]: duplicate endpoint name %q", i, ep.Name)
		}
		seen[ep.Name] = true

		if err := ep.validate(); err != nil {
			return fmt.Errorf("endpoint %q: %w", ep.Name, err)
		}
	}

	if c.DefaultEndpoint != "" && !seen[c.DefaultEndpoint] {
		return fmt.Errorf("default_endpoint %q does not match any configured endpoint", c.DefaultEndpoint)
	}

	return nil
}

func (e EndpointConfig) validate() error {
	if e.AuthEndpoint == "" {
		return fmt.Errorf("auth_endpoint is required")
	}
	if e.TokenEndpoint == "" {
		return fmt.Errorf("token_endpoint is required")
	}
	if e.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}

	if _, err := url.Parse(e.AuthEndpoint); err != nil {
		return fmt.Errorf("invalid auth_endpoint: %w", err)
	}

	if e.RedirectURI != "" {
		u, err := url.Parse(e.RedirectURI)
		if err != nil {
			return fmt.Errorf("invalid redirect_uri: %w", err)
		}
		if u.Scheme != "http" {
			return fmt.Errorf("redirect_uri must use http for the loopback callback, got %q", e.RedirectURI)
		}
	}

	return nil
}
