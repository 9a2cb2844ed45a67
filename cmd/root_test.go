package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"authflow/internal/auth"

	"github.com/spf13/cobra"
)

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	SetVersion(testVersion)

	if rootCmd.Version != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, rootCmd.Version)
	}
	if GetVersion() != testVersion {
		t.Errorf("Expected GetVersion to return %s, got %s", testVersion, GetVersion())
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "authflow" {
		t.Errorf("Expected Use to be 'authflow', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}

	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	expected := []string{"login", "logout", "refresh", "status", "version"}

	for _, name := range expected {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}

	// Same template as in Execute()
	testCmd.SetVersionTemplate(`{{printf "authflow version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)

	testCmd.SetArgs([]string{"--version"})
	if err := testCmd.Execute(); err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}

	if !strings.Contains(buf.String(), "authflow version 1.0.0") {
		t.Errorf("Unexpected version output: %q", buf.String())
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "refresh expired",
			err:  &auth.RefreshExpiredError{Status: 401},
			want: ExitCodeAuthRequired,
		},
		{
			name: "no refresh token",
			err:  auth.ErrNoRefreshToken,
			want: ExitCodeAuthRequired,
		},
		{
			name: "token exchange failed",
			err:  &auth.TokenExchangeError{Status: 400, Body: "invalid_grant"},
			want: ExitCodeAuthFailed,
		},
		{
			name: "state mismatch",
			err:  &auth.StateMismatchError{Expected: "a", Received: "b"},
			want: ExitCodeAuthFailed,
		},
		{
			name: "authorization timeout",
			err:  auth.ErrAuthorizationTimeout,
			want: ExitCodeAuthFailed,
		},
		{
			name: "malformed token response",
			err:  auth.ErrMalformedTokenResponse,
			want: ExitCodeAuthFailed,
		},
		{
			name: "wrapped auth error",
			err:  errors.Join(errors.New("login failed"), auth.ErrAuthorizationTimeout),
			want: ExitCodeAuthFailed,
		},
		{
			name: "generic error",
			err:  errors.New("something else"),
			want: ExitCodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getExitCode(tt.err); got != tt.want {
				t.Errorf("getExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
