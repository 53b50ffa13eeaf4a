package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"time"
)

// browserMethod represents a method to open the browser
type browserMethod struct {
	name string
	cmd  string
	args []string
}

// openBrowser tries each platform launcher in turn
func openBrowser(ctx context.Context, url string) error {
	var lastErr error

	for _, method := range browserOpenMethods(runtime.GOOS, url) {
		startCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := exec.CommandContext(startCtx, method.cmd, method.args...).Start()
		cancel()
		if err != nil {
			lastErr = err
			slog.DebugContext(ctx, "Browser open method failed",
				slog.String("method", method.name),
				slog.String("error", err.Error()))
			continue
		}

		slog.InfoContext(ctx, "Browser opened",
			slog.String("method", method.name),
			slog.String("url", url))
		return nil
	}

	return fmt.Errorf("failed to open browser: %w", lastErr)
}

// browserOpenMethods returns platform-specific browser opening methods
func browserOpenMethods(goos, url string) []browserMethod {
	switch goos {
	case "windows":
		return []browserMethod{
			{name: "rundll32", cmd: "rundll32", args: []string{"url.dll,FileProtocolHandler", url}},
			{name: "start_command", cmd: "cmd", args: []string{"/c", "start", "", url}},
		}
	case "darwin":
		return []browserMethod{
			{name: "open", cmd: "open", args: []string{url}},
		}
	default:
		return []browserMethod{
			{name: "xdg-open", cmd: "xdg-open", args: []string{url}},
			{name: "sensible-browser", cmd: "sensible-browser", args: []string{url}},
		}
	}
}
