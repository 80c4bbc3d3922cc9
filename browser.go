package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// browserCommand returns the command that opens url on goos. A non-empty
// BROWSER environment variable names the program to use instead.
func browserCommand(goos, url string) *exec.Cmd {
	if b := os.Getenv("BROWSER"); b != "" {
		return exec.Command(b, url)
	}

	switch goos {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		// Linux and other Unix-like systems
		return exec.Command("xdg-open", url)
	}
}

// openBrowser attempts to open url in the user's default browser.
// Callers should always print the URL as a fallback regardless of the error.
func openBrowser(url string) error {
	cmd := browserCommand(runtime.GOOS, url)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	// Detach; the browser outlives us.
	go func() { _ = cmd.Wait() }()

	return nil
}
