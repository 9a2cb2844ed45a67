package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// verifierRandomBytes is the number of random bytes drawn for the code
	// verifier before base64url encoding and character cleanup.
	verifierRandomBytes = 64

	// stateRandomBytes is the number of random bytes drawn for the state
	// parameter.
	stateRandomBytes = 40

	// MinVerifierLength and MaxVerifierLength are the RFC 7636 bounds on
	// the code verifier length.
	MinVerifierLength = 43
	MaxVerifierLength = 128

	// MethodS256 is the only code challenge method this package produces.
	// OAuth 2.1 forbids the "plain" method.
	MethodS256 = "S256"
)

// ErrInvalidVerifierLength is returned when a generated verifier falls
// outside the RFC 7636 [43,128] length bounds after character cleanup.
// The caller may simply generate a new one.
var ErrInvalidVerifierLength = errors.New("pkce: code verifier length outside [43,128]")

// Challenge holds one set of PKCE parameters for a single authorization
// flow attempt. Values are immutable once generated.
type Challenge struct {
	// CodeVerifier is the cryptographically random secret. It is kept
	// local and only sent to the token endpoint.
	CodeVerifier string

	// CodeChallenge is the base64url-encoded SHA-256 hash of the verifier,
	// sent in the authorization request.
	CodeChallenge string

	// CodeChallengeMethod is always "S256".
	CodeChallengeMethod string
}

// Generate produces a fresh verifier and its S256 challenge.
func Generate() (*Challenge, error) {
	verifier, err := GenerateCodeVerifier()
	if err != nil {
		return nil, err
	}

	return &Challenge{
		CodeVerifier:        verifier,
		CodeChallenge:       CodeChallenge(verifier),
		CodeChallengeMethod: MethodS256,
	}, nil
}

// GenerateCodeVerifier draws 64 random bytes, base64url-encodes them and
// strips every character outside the RFC 7636 unreserved set
// [A-Za-z0-9_.~-]. The result must land inside [43,128] characters;
// anything else is rejected rather than truncated or padded.
func GenerateCodeVerifier() (string, error) {
	raw := make([]byte, verifierRandomBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("pkce: failed to read random bytes: %w", err)
	}

	verifier := stripInvalid(base64.URLEncoding.EncodeToString(raw), isVerifierChar)
	if len(verifier) < MinVerifierLength || len(verifier) > MaxVerifierLength {
		return "", fmt.Errorf("%w: got %d", ErrInvalidVerifierLength, len(verifier))
	}

	return verifier, nil
}

// GenerateState draws 40 random bytes and base64url-encodes them, keeping
// only characters from [A-Za-z0-9-_.,]. The state parameter links the
// callback back to the request and defeats CSRF.
func GenerateState() (string, error) {
	raw := make([]byte, stateRandomBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("pkce: failed to generate state: %w", err)
	}

	return stripInvalid(base64.URLEncoding.EncodeToString(raw), isStateChar), nil
}

// CodeChallenge derives the S256 challenge for a verifier:
// base64url(SHA-256(verifier)) with padding removed. Deterministic.
func CodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func isVerifierChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '.' || c == '~' || c == '-':
		return true
	}
	return false
}

func isStateChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == ',':
		return true
	}
	return false
}

func stripInvalid(s string, keep func(byte) bool) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if keep(s[i]) {
			out = append(out, s[i])
		}
	}
	return string(out)
}
