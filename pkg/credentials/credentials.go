package credentials

import (
	"time"

	"golang.org/x/oauth2"
)

// DefaultExpiryMargin is the default margin when checking credential expiry.
// This accounts for clock skew and network latency.
const DefaultExpiryMargin = 30 * time.Second

// Credentials holds the tokens obtained for one endpoint. A refresh
// replaces the whole value rather than mutating it in place.
type Credentials struct {
	// AccessToken is the bearer token used for authorization.
	AccessToken string `json:"access_token"`

	// RefreshToken is used to obtain new access tokens (optional).
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresIn is the access token lifetime in seconds, as reported by
	// the token endpoint. Zero when the server omits it.
	ExpiresIn int `json:"expires_in,omitempty"`

	// ExpiresAt is the calculated expiration timestamp. Zero when the
	// server did not report a lifetime.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// ForEndpoint is the endpoint these credentials authenticate to.
	ForEndpoint string `json:"for_endpoint"`
}

// HasRefreshToken reports whether a refresh token is present.
func (c *Credentials) HasRefreshToken() bool {
	return c != nil && c.RefreshToken != ""
}

// IsExpired checks if the access token has expired or will expire within
// the default margin. Credentials without an expiry never expire.
func (c *Credentials) IsExpired() bool {
	return c.IsExpiredWithMargin(DefaultExpiryMargin)
}

// IsExpiredWithMargin checks expiry against an explicit margin.
func (c *Credentials) IsExpiredWithMargin(margin time.Duration) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(margin).After(c.ExpiresAt)
}

// SetExpiresAtFromExpiresIn calculates and sets ExpiresAt from ExpiresIn.
func (c *Credentials) SetExpiresAtFromExpiresIn() {
	if c.ExpiresIn > 0 && c.ExpiresAt.IsZero() {
		c.ExpiresAt = time.Now().Add(time.Duration(c.ExpiresIn) * time.Second)
	}
}

// ToOAuth2Token converts the credentials to an oauth2.Token for use with
// golang.org/x/oauth2 transports.
func (c *Credentials) ToOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       c.ExpiresAt,
	}
}
