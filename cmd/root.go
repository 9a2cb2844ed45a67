package cmd

import (
	"errors"
	"os"

	"authflow/internal/auth"
	"authflow/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands. These follow common conventions so the
// flow can be scripted.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates a new interactive login is required.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the OAuth flow itself failed.
	ExitCodeAuthFailed = 3
)

// Persistent flags shared by every subcommand.
var (
	flagEndpoint   string
	flagConfigPath string
	flagStorageDir string
	flagQuiet      bool
	flagVerbose    bool
)

// rootCmd is the entry point when the application is called without any
// subcommands.
var rootCmd = &cobra.Command{
	Use:   "authflow",
	Short: "Obtain OAuth2 credentials for remote APIs through your browser",
	Long: `authflow runs the OAuth2 Authorization Code flow with PKCE for
native clients: it opens your browser at the identity provider, receives
the callback on a local loopback port, exchanges the code for tokens and
stores them for later use.`,
	// SilenceUsage prevents Cobra from printing the usage message on
	// errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelWarn
		if flagVerbose {
			level = logging.LevelDebug
		}
		logging.InitForCLI(level, os.Stderr)
	},
}

// SetVersion sets the version for the root command. Called from the main
// package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application. It is called
// by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "authflow version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error
// type, giving scripts semantic exit codes.
func getExitCode(err error) int {
	// The refresh token is gone or rejected: a new login is needed.
	var refreshExpired *auth.RefreshExpiredError
	if errors.As(err, &refreshExpired) {
		return ExitCodeAuthRequired
	}
	if errors.Is(err, auth.ErrNoRefreshToken) {
		return ExitCodeAuthRequired
	}

	// The interactive flow itself failed.
	var exchangeErr *auth.TokenExchangeError
	if errors.As(err, &exchangeErr) {
		return ExitCodeAuthFailed
	}
	var stateMismatch *auth.StateMismatchError
	if errors.As(err, &stateMismatch) {
		return ExitCodeAuthFailed
	}
	if errors.Is(err, auth.ErrAuthorizationTimeout) ||
		errors.Is(err, auth.ErrMalformedTokenResponse) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagEndpoint, "endpoint", "e", "", "Named endpoint from the config file (default: default_endpoint)")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config-path", "", "Directory containing config.yaml (default: ~/.config/authflow)")
	rootCmd.PersistentFlags().StringVar(&flagStorageDir, "storage-dir", "", "Directory for stored credentials (default: ~/.config/authflow/credentials)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
}
