package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "90s" or "2m" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the wrapped time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the top-level configuration structure for authflow.
type Config struct {
	// DefaultEndpoint names the endpoint used when none is given on the
	// command line.
	DefaultEndpoint string `yaml:"default_endpoint,omitempty"`

	// CallbackTimeout bounds the wait for the authorization callback.
	CallbackTimeout Duration `yaml:"callback_timeout,omitempty"`

	// Endpoints lists the remote APIs this client can authenticate for.
	Endpoints []EndpointConfig `yaml:"endpoints,omitempty"`
}

// EndpointConfig describes one remote API and the OAuth2 endpoints used
// to obtain credentials for it.
type EndpointConfig struct {
	// Name identifies the endpoint on the command line.
	Name string `yaml:"name"`

	// Endpoint is the remote API the credentials are for.
	Endpoint string `yaml:"endpoint"`

	// AuthEndpoint is the authorization endpoint opened in the browser.
	AuthEndpoint string `yaml:"auth_endpoint"`

	// TokenEndpoint receives the code exchange and refresh requests.
	TokenEndpoint string `yaml:"token_endpoint"`

	// ClientID identifies this public client.
	ClientID string `yaml:"client_id"`

	// RedirectURI is the loopback callback (default: http://localhost:53593/callback).
	RedirectURI string `yaml:"redirect_uri,omitempty"`

	// Scopes requested during authorization.
	Scopes []string `yaml:"scopes,omitempty"`

	// InsecureSkipVerify disables TLS verification for token requests.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify,omitempty"`

	// CABundle points at a PEM bundle to trust instead of the system pool.
	CABundle string `yaml:"ca_bundle,omitempty"`
}

// DefaultRedirectURI is used when an endpoint omits redirect_uri.
const DefaultRedirectURI = "http://localhost:53593/callback"

// GetDefaultConfig returns the configuration used when no config.yaml
// exists.
func GetDefaultConfig() Config {
	return Config{}
}

// Endpoint returns the endpoint configuration with the given name. An
// empty name resolves the default endpoint; when only one endpoint is
// configured it is the implicit default.
func (c Config) Endpoint(name string) (EndpointConfig, bool) {
	if name == "" {
		name = c.DefaultEndpoint
	}
	if name == "" && len(c.Endpoints) == 1 {
		return c.Endpoints[0].withDefaults(), true
	}
	for _, ep := range c.Endpoints {
		if ep.Name == name {
			return ep.withDefaults(), true
		}
	}
	return EndpointConfig{}, false
}

func (e EndpointConfig) withDefaults() EndpointConfig {
	if e.RedirectURI == "" {
		e.RedirectURI = DefaultRedirectURI
	}
	return e
}
