package auth

import (
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserLauncher opens a URL in the user's browser. The default is
// OpenBrowser; tests and embedders may inject their own.
type BrowserLauncher func(url string) error

// OpenBrowser opens the specified URL in the default web browser.
// It supports Linux, macOS, and Windows. The launch is fire-and-forget:
// the command is started but never waited on, and user interaction in the
// browser is not observed. Failures come back as *BrowserLaunchError.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return &BrowserLaunchError{URL: url, Err: fmt.Errorf("unsupported platform: %s", runtime.GOOS)}
	}

	if err := cmd.Start(); err != nil {
		return &BrowserLaunchError{URL: url, Err: err}
	}

	return nil
}
