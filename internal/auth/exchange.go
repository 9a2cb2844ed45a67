package auth

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"authflow/pkg/credentials"
)

// DefaultHTTPTimeout is the default timeout for token endpoint requests.
const DefaultHTTPTimeout = 30 * time.Second

// TLSConfig controls TLS verification for token endpoint requests,
// mirroring the usual "verify" knob of native clients: disable
// verification entirely, or trust a custom CA bundle.
type TLSConfig struct {
	// InsecureSkipVerify disables certificate verification. Only for
	// local development against self-signed endpoints.
	InsecureSkipVerify bool

	// CABundlePath points at a PEM bundle to use as the trust root
	// instead of the system pool.
	CABundlePath string
}

// HTTPClient builds an HTTP client honoring the TLS settings.
func (c TLSConfig) HTTPClient() (*http.Client, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if c.InsecureSkipVerify {
		tlsCfg.InsecureSkipVerify = true
	}

	if c.CABundlePath != "" {
		pem, err := os.ReadFile(c.CABundlePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA bundle %s: %w", c.CABundlePath, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in CA bundle %s", c.CABundlePath)
		}
		tlsCfg.RootCAs = pool
	}

	return &http.Client{
		Timeout: DefaultHTTPTimeout,
		Transport: &http.Transport{
			TLSClientConfig: tlsCfg,
			Proxy:           http.ProxyFromEnvironment,
		},
	}, nil
}

// TokenExchanger performs the authorization_code and refresh_token grant
// POSTs against one token endpoint. Both operations are single
// request/response exchanges with no retry; retry policy belongs to the
// caller.
type TokenExchanger struct {
	tokenEndpoint string
	clientID      string
	redirectURI   string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewTokenExchanger creates an exchanger for a token endpoint.
func NewTokenExchanger(tokenEndpoint, clientID, redirectURI string, tlsCfg TLSConfig, logger *slog.Logger) (*TokenExchanger, error) {
	httpClient, err := tlsCfg.HTTPClient()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TokenExchanger{
		tokenEndpoint: tokenEndpoint,
		clientID:      clientID,
		redirectURI:   redirectURI,
		httpClient:    httpClient,
		logger:        logger,
	}, nil
}

// tokenResponse is the JSON body of a successful token endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ExchangeCode exchanges an authorization code for credentials using the
// PKCE verifier. A non-200 answer yields *TokenExchangeError; a 200 body
// without access_token yields ErrMalformedTokenResponse.
func (t *TokenExchanger) ExchangeCode(ctx context.Context, code, verifier, forEndpoint string) (*credentials.Credentials, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"code_verifier": {verifier},
		"client_id":     {t.clientID},
		"redirect_uri":  {t.redirectURI},
	}

	body, status, err := t.post(ctx, data)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &TokenExchangeError{Status: status, Body: string(body)}
	}

	return t.credentialsFromResponse(body, forEndpoint)
}

// Refresh obtains fresh credentials via the refresh_token grant. Missing
// refresh token fails with ErrNoRefreshToken before any network call; a
// non-200 answer yields *RefreshExpiredError, signaling the caller that a
// new interactive flow is required.
func (t *TokenExchanger) Refresh(ctx context.Context, creds *credentials.Credentials) (*credentials.Credentials, error) {
	if !creds.HasRefreshToken() {
		return nil, ErrNoRefreshToken
	}

	data := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {t.clientID},
		"refresh_token": {creds.RefreshToken},
	}

	body, status, err := t.post(ctx, data)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		t.logger.Debug("refresh token rejected", "status", status)
		return nil, &RefreshExpiredError{Status: status}
	}

	return t.credentialsFromResponse(body, creds.ForEndpoint)
}

// post issues one form-encoded POST to the token endpoint.
func (t *TokenExchanger) post(ctx context.Context, data url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read token response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// credentialsFromResponse parses a 200 token response into credentials.
func (t *TokenExchanger) credentialsFromResponse(body []byte, forEndpoint string) (*credentials.Credentials, error) {
	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, ErrMalformedTokenResponse
	}

	creds := &credentials.Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		ForEndpoint:  forEndpoint,
	}
	creds.SetExpiresAtFromExpiresIn()

	return creds, nil
}
