package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"authflow/pkg/credentials"
	"authflow/pkg/pkce"
)

// Options configures an AuthorizationClient. AuthEndpoint, TokenEndpoint
// and RedirectURI are required.
type Options struct {
	// Endpoint is the remote API the obtained credentials are for.
	Endpoint string

	// AuthEndpoint is the authorization endpoint opened in the browser.
	// It also keys the process-wide client registry.
	AuthEndpoint string

	// TokenEndpoint receives the code exchange and refresh POSTs.
	TokenEndpoint string

	// Scopes are joined with spaces into the scope parameter.
	Scopes []string

	// ClientID identifies this public client; no client secret is used.
	ClientID string

	// RedirectURI is the loopback callback, e.g. http://localhost:53593/callback.
	RedirectURI string

	// Metadata controls callback page rendering. Defaults to the
	// hostname of AuthEndpoint.
	Metadata *EndpointMetadata

	// TLS configures verification for token endpoint requests.
	TLS TLSConfig

	// Timeout bounds the wait for the authorization callback.
	// Defaults to DefaultCallbackTimeout.
	Timeout time.Duration

	// Store, when set, receives the credentials after every successful
	// exchange or refresh. Save failures are logged, not fatal.
	Store credentials.Store

	// Browser opens the authorization URL. Defaults to OpenBrowser.
	Browser BrowserLauncher

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// AuthorizationClient drives the authorization-code + PKCE flow for one
// auth endpoint. Instances are process-wide singletons per auth endpoint,
// resolved through New. A client is not safe for concurrent flows: an
// internal mutex serializes GetCredsFromRemote calls.
type AuthorizationClient struct {
	opts      Options
	metadata  EndpointMetadata
	exchanger *TokenExchanger
	browser   BrowserLauncher
	timeout   time.Duration
	logger    *slog.Logger

	// mu permits one in-flight flow per endpoint.
	mu sync.Mutex
}

// newAuthorizationClient constructs a client without registry resolution.
func newAuthorizationClient(opts Options) (*AuthorizationClient, error) {
	if opts.AuthEndpoint == "" {
		return nil, errors.New("auth endpoint is required")
	}
	if opts.TokenEndpoint == "" {
		return nil, errors.New("token endpoint is required")
	}
	if opts.RedirectURI == "" {
		return nil, errors.New("redirect URI is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metadata := MetadataForEndpoint(opts.AuthEndpoint)
	if opts.Metadata != nil {
		metadata = *opts.Metadata
		if metadata.Label == "" {
			metadata.Label = MetadataForEndpoint(opts.AuthEndpoint).Label
		}
	}

	exchanger, err := NewTokenExchanger(opts.TokenEndpoint, opts.ClientID, opts.RedirectURI, opts.TLS, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create token exchanger: %w", err)
	}

	browser := opts.Browser
	if browser == nil {
		browser = OpenBrowser
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultCallbackTimeout
	}

	return &AuthorizationClient{
		opts:      opts,
		metadata:  metadata,
		exchanger: exchanger,
		browser:   browser,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// GetCredsFromRemote runs the full interactive flow: start the loopback
// callback listener, send the user's browser to the authorization URL,
// wait (bounded) for the callback, verify the state parameter, and
// exchange the code for credentials. Fresh PKCE parameters and state are
// generated for every attempt. The listener's port is released on every
// return path.
func (c *AuthorizationClient) GetCredsFromRemote(ctx context.Context) (*credentials.Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	flowID := uuid.NewString()

	challenge, err := pkce.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE parameters: %w", err)
	}
	state, err := pkce.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	callback, err := NewCallbackServer(c.opts.RedirectURI, c.metadata, c.logger)
	if err != nil {
		return nil, err
	}

	// The listener must be bound before the browser opens, or the user
	// could finish authenticating before the port exists.
	if err := callback.Start(ctx); err != nil {
		return nil, err
	}
	defer callback.Stop()

	authURL, err := c.buildAuthorizationURL(state, challenge)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("requesting authorization code",
		"flow_id", flowID,
		"auth_endpoint", c.opts.AuthEndpoint,
	)

	if err := c.browser(authURL); err != nil {
		// Non-fatal: the user can still visit the URL manually.
		c.logger.Warn("failed to open browser, visit the authorization URL manually",
			"flow_id", flowID,
			"url", authURL,
			"error", err.Error(),
		)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	code, err := callback.Wait(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrAuthorizationTimeout
		}
		return nil, fmt.Errorf("authorization callback failed: %w", err)
	}

	if code.State != state {
		c.logger.Warn("state mismatch in authorization callback",
			"flow_id", flowID,
			"expected_state_len", len(state),
			"received_state_len", len(code.State),
		)
		return nil, &StateMismatchError{Expected: state, Received: code.State}
	}

	creds, err := c.exchanger.ExchangeCode(ctx, code.Code, challenge.CodeVerifier, c.opts.Endpoint)
	if err != nil {
		return nil, err
	}

	c.logger.Info("authorization flow complete",
		"flow_id", flowID,
		"endpoint", c.opts.Endpoint,
		"has_refresh_token", creds.HasRefreshToken(),
	)

	c.saveCredentials(creds)
	return creds, nil
}

// RefreshAccessToken obtains new credentials from the stored refresh
// token. A *RefreshExpiredError means this client is defunct and a new
// interactive flow must be run.
func (c *AuthorizationClient) RefreshAccessToken(ctx context.Context, creds *credentials.Credentials) (*credentials.Credentials, error) {
	refreshed, err := c.exchanger.Refresh(ctx, creds)
	if err != nil {
		return nil, err
	}

	c.saveCredentials(refreshed)
	return refreshed, nil
}

// Endpoint returns the remote API endpoint this client authenticates for.
func (c *AuthorizationClient) Endpoint() string {
	return c.opts.Endpoint
}

// AuthEndpoint returns the authorization endpoint keying this client.
func (c *AuthorizationClient) AuthEndpoint() string {
	return c.opts.AuthEndpoint
}

// saveCredentials hands credentials to the configured store, if any.
func (c *AuthorizationClient) saveCredentials(creds *credentials.Credentials) {
	if c.opts.Store == nil {
		return
	}
	if err := c.opts.Store.Save(c.opts.Endpoint, creds); err != nil {
		// The credentials remain valid for this session.
		c.logger.Warn("failed to persist credentials",
			"endpoint", c.opts.Endpoint,
			"error", err.Error(),
		)
	}
}

// buildAuthorizationURL constructs the URL opened in the browser.
func (c *AuthorizationClient) buildAuthorizationURL(state string, challenge *pkce.Challenge) (string, error) {
	authURL, err := url.Parse(c.opts.AuthEndpoint)
	if err != nil {
		return "", fmt.Errorf("invalid authorization endpoint: %w", err)
	}

	query := authURL.Query()
	query.Set("client_id", c.opts.ClientID)
	query.Set("response_type", "code")
	query.Set("redirect_uri", c.opts.RedirectURI)
	query.Set("state", state)
	query.Set("code_challenge", challenge.CodeChallenge)
	query.Set("code_challenge_method", challenge.CodeChallengeMethod)
	if len(c.opts.Scopes) > 0 {
		query.Set("scope", strings.Join(c.opts.Scopes, " "))
	}

	authURL.RawQuery = query.Encode()
	return authURL.String(), nil
}
