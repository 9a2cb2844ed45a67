package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestBrowserLaunchError_Unwrap(t *testing.T) {
	cause := errors.New("exec: not found")
	err := &BrowserLaunchError{URL: "https://idp.example.com/authorize", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("BrowserLaunchError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "https://idp.example.com/authorize") {
		t.Errorf("message should carry the URL, got %q", err.Error())
	}
}

func TestStateMismatchError_MessageOmitsValues(t *testing.T) {
	err := &StateMismatchError{Expected: "secret-expected", Received: "secret-received"}

	msg := err.Error()
	if strings.Contains(msg, "secret-expected") || strings.Contains(msg, "secret-received") {
		t.Errorf("state values must not appear in the message, got %q", msg)
	}
	if err.Expected != "secret-expected" || err.Received != "secret-received" {
		t.Error("raw values should remain inspectable on the struct")
	}
}

func TestTokenExchangeError_Message(t *testing.T) {
	err := &TokenExchangeError{Status: 400, Body: `{"error":"invalid_grant"}`}

	if !strings.Contains(err.Error(), "400") {
		t.Errorf("message should carry the status, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "invalid_grant") {
		t.Errorf("message should carry the body, got %q", err.Error())
	}
}

func TestRefreshExpiredError_Message(t *testing.T) {
	err := &RefreshExpiredError{Status: 401}

	if !strings.Contains(err.Error(), "401") {
		t.Errorf("message should carry the status, got %q", err.Error())
	}

	var target *RefreshExpiredError
	if !errors.As(error(err), &target) {
		t.Error("errors.As should match *RefreshExpiredError")
	}
}
