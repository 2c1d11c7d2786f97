package auth

import (
	"os"
	"os/exec"
	"runtime"
)

// browserCommand is replaced in tests.
var browserCommand = func(url string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

// OpenBrowser launches the user's browser on url without waiting for it.
// The child is reaped in the background.
func OpenBrowser(url string) error {
	_, err := startBrowser(url)
	return err
}

func startBrowser(url string) (<-chan error, error) {
	cmd := browserCommand(url)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	return done, nil
}
