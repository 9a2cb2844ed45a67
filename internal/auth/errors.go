package auth

import (
	"errors"
	"fmt"
)

// ErrAuthorizationTimeout is returned when the bounded wait for the
// authorization callback elapses. The listener has been torn down and the
// port released; the attempt must be restarted.
var ErrAuthorizationTimeout = errors.New("timed out waiting for authorization callback")

// ErrMalformedTokenResponse is returned when the token endpoint answers
// 200 but the body carries no access_token. No partial credentials are
// ever returned alongside it.
var ErrMalformedTokenResponse = errors.New(`expected "access_token" in token endpoint response`)

// ErrNoRefreshToken is returned by the refresh path when the supplied
// credentials carry no refresh token. No network call is made.
var ErrNoRefreshToken = errors.New("no refresh token available with which to refresh credentials")

// BrowserLaunchError indicates the system browser could not be opened.
// It is non-fatal: the flow keeps waiting, since the user can complete it
// by visiting the URL manually.
type BrowserLaunchError struct {
	URL string
	Err error
}

func (e *BrowserLaunchError) Error() string {
	return fmt.Sprintf("failed to open browser for %s: %v", e.URL, e.Err)
}

func (e *BrowserLaunchError) Unwrap() error {
	return e.Err
}

// StateMismatchError indicates the state returned in the callback does not
// match the state sent in the authorization request. This is treated as a
// possible CSRF or stale callback: the flow fails before any token call
// and must restart with fresh parameters. The raw values are carried for
// inspection but deliberately kept out of the message.
type StateMismatchError struct {
	Expected string
	Received string
}

func (e *StateMismatchError) Error() string {
	return "state parameter mismatch in authorization callback (possible CSRF)"
}

// TokenExchangeError indicates the token endpoint rejected the
// authorization-code exchange.
type TokenExchangeError struct {
	Status int
	Body   string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed with status %d: %s", e.Status, e.Body)
}

// RefreshExpiredError indicates the token endpoint rejected a refresh.
// The refresh token is assumed expired: the authorization client is
// defunct and a new interactive flow must be started.
type RefreshExpiredError struct {
	Status int
}

func (e *RefreshExpiredError) Error() string {
	return fmt.Sprintf("refresh token rejected with status %d, re-authentication required", e.Status)
}
