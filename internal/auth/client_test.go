package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authflow/pkg/credentials"
)

// freeRedirectURI reserves an ephemeral loopback port and returns a
// redirect URI pointing at it. The port is released immediately, so a
// rebind race is possible but unlikely within a single test.
func freeRedirectURI(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	return fmt.Sprintf("http://127.0.0.1:%d/callback", port)
}

// browserFollowingRedirect returns a launcher that behaves like a user
// completing authentication: it reads state and redirect_uri out of the
// authorization URL and immediately hits the callback with a code.
func browserFollowingRedirect(t *testing.T, code string, mangleState func(string) string) BrowserLauncher {
	t.Helper()

	return func(rawURL string) error {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return err
		}
		query := parsed.Query()

		state := query.Get("state")
		if mangleState != nil {
			state = mangleState(state)
		}

		callbackURL := fmt.Sprintf("%s?code=%s&state=%s",
			query.Get("redirect_uri"), url.QueryEscape(code), url.QueryEscape(state))

		go func() {
			resp, err := http.Get(callbackURL)
			if err != nil {
				return
			}
			resp.Body.Close()
		}()
		return nil
	}
}

func TestGetCredsFromRemote_FullFlow(t *testing.T) {
	var authRequest url.Values

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		authRequest = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-flow","refresh_token":"rt-flow","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	store := credentials.NewMemoryStore()

	var sawAuthURL atomic.Value
	browser := browserFollowingRedirect(t, "auth-code-1", nil)

	client, err := newAuthorizationClient(Options{
		Endpoint:      "https://api.example.com",
		AuthEndpoint:  "https://idp.example.com/oauth2/authorize",
		TokenEndpoint: tokenServer.URL,
		Scopes:        []string{"openid", "offline_access"},
		ClientID:      "native-app",
		RedirectURI:   freeRedirectURI(t),
		Store:         store,
		Browser: func(rawURL string) error {
			sawAuthURL.Store(rawURL)
			return browser(rawURL)
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	creds, err := client.GetCredsFromRemote(ctx)
	require.NoError(t, err)

	assert.Equal(t, "at-flow", creds.AccessToken)
	assert.Equal(t, "rt-flow", creds.RefreshToken)
	assert.Equal(t, "https://api.example.com", creds.ForEndpoint)

	// The authorization URL must carry the full PKCE parameter set.
	rawURL, _ := sawAuthURL.Load().(string)
	require.NotEmpty(t, rawURL)
	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "native-app", query.Get("client_id"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.NotEmpty(t, query.Get("code_challenge"))
	assert.NotEmpty(t, query.Get("state"))
	assert.Equal(t, "openid offline_access", query.Get("scope"))

	// The code exchange must carry the verifier matching the challenge.
	assert.Equal(t, "auth-code-1", authRequest.Get("code"))
	assert.NotEmpty(t, authRequest.Get("code_verifier"))

	// Credentials were handed to the store.
	stored, err := store.Load("https://api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "at-flow", stored.AccessToken)
}

func TestGetCredsFromRemote_StateMismatch(t *testing.T) {
	var tokenRequests atomic.Int32

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)
		w.Write([]byte(`{"access_token":"should-never-happen"}`))
	}))
	defer tokenServer.Close()

	client, err := newAuthorizationClient(Options{
		Endpoint:      "https://api.example.com",
		AuthEndpoint:  "https://idp.example.com/oauth2/authorize",
		TokenEndpoint: tokenServer.URL,
		ClientID:      "native-app",
		RedirectURI:   freeRedirectURI(t),
		Browser: browserFollowingRedirect(t, "auth-code-1", func(string) string {
			return "forged-state"
		}),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = client.GetCredsFromRemote(ctx)
	require.Error(t, err)

	var mismatch *StateMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "forged-state", mismatch.Received)

	assert.Equal(t, int32(0), tokenRequests.Load(), "a mismatched state must never reach the token endpoint")
}

func TestGetCredsFromRemote_Timeout(t *testing.T) {
	client, err := newAuthorizationClient(Options{
		Endpoint:      "https://api.example.com",
		AuthEndpoint:  "https://idp.example.com/oauth2/authorize",
		TokenEndpoint: "https://idp.example.com/oauth2/token",
		ClientID:      "native-app",
		RedirectURI:   freeRedirectURI(t),
		Timeout:       200 * time.Millisecond,
		Browser:       func(string) error { return nil }, // user never completes
	})
	require.NoError(t, err)

	_, err = client.GetCredsFromRemote(context.Background())
	require.ErrorIs(t, err, ErrAuthorizationTimeout)
}

func TestGetCredsFromRemote_BrowserFailureIsNotFatal(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at-manual"}`))
	}))
	defer tokenServer.Close()

	redirectURI := freeRedirectURI(t)

	client, err := newAuthorizationClient(Options{
		Endpoint:      "https://api.example.com",
		AuthEndpoint:  "https://idp.example.com/oauth2/authorize",
		TokenEndpoint: tokenServer.URL,
		ClientID:      "native-app",
		RedirectURI:   redirectURI,
		Browser: func(rawURL string) error {
			// Launch fails, but the user pastes the URL into a browser
			// themselves; simulate the resulting callback.
			parsed, perr := url.Parse(rawURL)
			if perr != nil {
				return perr
			}
			state := parsed.Query().Get("state")
			go func() {
				time.Sleep(100 * time.Millisecond)
				resp, gerr := http.Get(redirectURI + "?code=manual-code&state=" + url.QueryEscape(state))
				if gerr != nil {
					return
				}
				resp.Body.Close()
			}()
			return &BrowserLaunchError{URL: rawURL, Err: errors.New("no display")}
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	creds, err := client.GetCredsFromRemote(ctx)
	require.NoError(t, err)
	assert.Equal(t, "at-manual", creds.AccessToken)
}

func TestGetCredsFromRemote_FreshParametersPerAttempt(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at"}`))
	}))
	defer tokenServer.Close()

	var challenges []string
	browser := browserFollowingRedirect(t, "code", nil)

	client, err := newAuthorizationClient(Options{
		Endpoint:      "https://api.example.com",
		AuthEndpoint:  "https://idp.example.com/oauth2/authorize",
		TokenEndpoint: tokenServer.URL,
		ClientID:      "native-app",
		RedirectURI:   freeRedirectURI(t),
		Browser: func(rawURL string) error {
			parsed, perr := url.Parse(rawURL)
			if perr != nil {
				return perr
			}
			challenges = append(challenges, parsed.Query().Get("code_challenge"))
			return browser(rawURL)
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err = client.GetCredsFromRemote(ctx)
	require.NoError(t, err)
	_, err = client.GetCredsFromRemote(ctx)
	require.NoError(t, err)

	require.Len(t, challenges, 2)
	assert.NotEqual(t, challenges[0], challenges[1], "each attempt must use a fresh code challenge")
}

func TestRefreshAccessToken_SavesToStore(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at-refreshed","refresh_token":"rt-rotated","expires_in":900}`))
	}))
	defer tokenServer.Close()

	store := credentials.NewMemoryStore()

	client, err := newAuthorizationClient(Options{
		Endpoint:      "https://api.example.com",
		AuthEndpoint:  "https://idp.example.com/oauth2/authorize",
		TokenEndpoint: tokenServer.URL,
		ClientID:      "native-app",
		RedirectURI:   "http://localhost:53593/callback",
		Store:         store,
	})
	require.NoError(t, err)

	old := &credentials.Credentials{
		AccessToken:  "at-old",
		RefreshToken: "rt-old",
		ForEndpoint:  "https://api.example.com",
	}

	refreshed, err := client.RefreshAccessToken(context.Background(), old)
	require.NoError(t, err)
	assert.Equal(t, "at-refreshed", refreshed.AccessToken)
	assert.Equal(t, "rt-rotated", refreshed.RefreshToken)

	stored, err := store.Load("https://api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "at-refreshed", stored.AccessToken)
}

func TestNewAuthorizationClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{
			name: "missing auth endpoint",
			opts: Options{TokenEndpoint: "https://t", RedirectURI: "http://localhost/cb"},
		},
		{
			name: "missing token endpoint",
			opts: Options{AuthEndpoint: "https://a", RedirectURI: "http://localhost/cb"},
		},
		{
			name: "missing redirect URI",
			opts: Options{AuthEndpoint: "https://a", TokenEndpoint: "https://t"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newAuthorizationClient(tt.opts)
			assert.Error(t, err)
		})
	}
}
