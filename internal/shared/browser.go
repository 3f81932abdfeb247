package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var (
	getRuntime   = func() string { return runtime.GOOS }
	startCommand = func(name string, args ...string) error { return exec.Command(name, args...).Start() }
)

// browserCommand returns the program and arguments that open url.
//
// $BROWSER wins over the platform default; a "%s" in it is replaced by the URL, otherwise the URL is appended.
func browserCommand(url string) (string, []string, error) {
	if env := strings.Fields(os.Getenv("BROWSER")); len(env) > 0 {
		args := env[1:]
		replaced := false
		for i, a := range args {
			if strings.Contains(a, "%s") {
				args[i] = strings.ReplaceAll(a, "%s", url)
				replaced = true
			}
		}
		if !replaced {
			args = append(args, url)
		}
		return env[0], args, nil
	}

	switch rt := getRuntime(); rt {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}

// OpenBrowser opens the pairing page in the user's browser without waiting for it to exit.
func OpenBrowser(url string) error {
	name, args, err := browserCommand(url)
	if err != nil {
		return err
	}

	if err := startCommand(name, args...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
