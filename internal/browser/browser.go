// Package browser opens the tournament pages on the organiser's machine.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Commander starts an external program.
type Commander interface {
	Start(name string, args ...string) error
}

// RealCommander executes actual commands
type RealCommander struct{}

func (RealCommander) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

var defaultCommander Commander = RealCommander{}

// Pages served by the app.
const (
	PageDashboard = "/"
	PageAdmin     = "/admin"
)

// Open opens rawURL in the default browser.
func Open(rawURL string) error {
	return OpenWithCommander(rawURL, defaultCommander, runtime.GOOS)
}

// OpenPage opens page relative to the server's base URL.
func OpenPage(baseURL, page string) error {
	target, err := PageURL(baseURL, page)
	if err != nil {
		return err
	}
	return Open(target)
}

// PageURL joins a page path onto the base URL. Only http and https are allowed.
func PageURL(baseURL, page string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", baseURL)
	}
	if page == PageDashboard {
		u.Path = "/"
		return u.String(), nil
	}
	return u.JoinPath(page).String(), nil
}

// OpenWithCommander opens the URL using the given commander and OS.
func OpenWithCommander(rawURL string, commander Commander, goos string) error {
	name, args, err := command(goos, rawURL)
	if err != nil {
		return err
	}
	return commander.Start(name, args...)
}

func command(goos, rawURL string) (string, []string, error) {
	switch goos {
	case "linux":
		return "xdg-open", []string{rawURL}, nil
	case "darwin":
		return "open", []string{rawURL}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", rawURL}, nil
	}
	return "", nil, fmt.Errorf("unsupported platform: %s", goos)
}
