// Package cmd runs the external commands jt shells out to, which today
// means opening URLs in a browser.
package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/raphi011/jt/internal/log"
)

// ErrNoOpener means no known browser-opening command exists on PATH.
// Callers fall back to printing the URL.
var ErrNoOpener = errors.New("no browser opener found")

// Run executes a command, logging it in verbose mode and folding
// stderr into the returned error so failures say why.
func Run(ctx context.Context, name string, args ...string) error {
	log.FromContext(ctx).Command(name, args...)

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %s", name, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// openers lists browser-opening commands in preference order.
func openers() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32"}
	default:
		return []string{"xdg-open", "sensible-browser", "x-www-browser"}
	}
}

// OpenBrowser opens url with the platform's opener. Returns ErrNoOpener
// when none is installed.
func OpenBrowser(ctx context.Context, url string) error {
	for _, name := range openers() {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}
		args := []string{url}
		if name == "rundll32" {
			args = []string{"url.dll,FileProtocolHandler", url}
		}
		return Run(ctx, path, args...)
	}
	return ErrNoOpener
}
