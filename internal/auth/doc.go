// Package auth implements the OAuth2 Authorization Code flow with PKCE
// for native clients that authenticate through the user's browser.
//
// # Architecture
//
// The flow composes five pieces:
//   - PKCE parameters and state token (pkg/pkce), fresh per attempt
//   - a loopback CallbackServer receiving the single authorization redirect
//   - a best-effort browser launcher opening the authorization URL
//   - a TokenExchanger performing the authorization_code and refresh_token
//     grants against the token endpoint
//   - the AuthorizationClient orchestrating all of the above, one
//     process-wide instance per distinct auth endpoint
//
// # Ordering and lifetime
//
// The callback listener is bound before the browser is opened, so the
// redirect can never race the port. The listener serves at most one
// successful callback per attempt, is bounded by a timeout, and releases
// its port on every return path. Browser-launch failures are logged and
// the wait continues, since the user can visit the URL manually.
//
// # Usage
//
//	client, err := auth.New(auth.Options{
//	    Endpoint:      "https://api.example.com",
//	    AuthEndpoint:  "https://idp.example.com/oauth2/authorize",
//	    TokenEndpoint: "https://idp.example.com/oauth2/token",
//	    ClientID:      "my-native-app",
//	    RedirectURI:   "http://localhost:53593/callback",
//	})
//
//	creds, err := client.GetCredsFromRemote(ctx)
//
//	// Later, transparently renew:
//	creds, err = client.RefreshAccessToken(ctx, creds)
package auth
