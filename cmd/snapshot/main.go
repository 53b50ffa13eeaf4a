// Command snapshot captures a screenshot of a running dashboard with a
// headless Chrome.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/wdpkr/zillowdata/internal/config"
	"github.com/wdpkr/zillowdata/internal/infrastructure"
	"github.com/wdpkr/zillowdata/pkg/contracts"
)

type options struct {
	configPath string
	baseURL    string
	view       string
	out        string
	headless   bool
	timeout    time.Duration
	width      int
	height     int
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&o.baseURL, "url", "http://localhost:8080", "dashboard base URL")
	flag.StringVar(&o.view, "view", "choropleth", "view to open before capturing")
	flag.StringVar(&o.out, "out", "", "output PNG; bare names land in the snapshots directory")
	flag.BoolVar(&o.headless, "headless", true, "run browser headless")
	flag.DurationVar(&o.timeout, "timeout", 60*time.Second, "give up after this long")
	flag.IntVar(&o.width, "width", 1400, "browser window width")
	flag.IntVar(&o.height, "height", 900, "browser window height")
	version := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	cfg, err := config.LoadFrom(o.configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	paths := config.PathsFor(cfg)
	if err := paths.EnsureDirectories(logger); err != nil {
		logger.Error("Failed to create directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	target, err := dashboardURL(o.baseURL, o.view)
	if err != nil {
		logger.Error("Invalid dashboard URL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	out := outputPath(paths, o.out, o.view, time.Now())

	if err := capture(context.Background(), o, target, out, logger); err != nil {
		logger.Error("Snapshot failed",
			slog.String("url", target),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println(out)
}

// capture drives the browser to target, waits for the chart and writes a
// full page PNG to out
func capture(ctx context.Context, o options, target, out string, logger *slog.Logger) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.headless),
		chromedp.WindowSize(o.width, o.height),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, o.timeout)
	defer cancelTimeout()

	start := time.Now()
	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(target),
		chromedp.WaitVisible(`#chart`, chromedp.ByID),
		chromedp.WaitReady(readySelector(o.view), chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return fmt.Errorf("capture %s: %w", target, err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(out, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	logger.Info("Snapshot written",
		slog.String("url", target),
		slog.String("file_path", out),
		slog.Int("bytes", len(buf)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// dashboardURL points base at the dashboard page with view preselected
func dashboardURL(base, view string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", base)
	}
	u.Path = "/"
	q := u.Query()
	if view != "" {
		q.Set("view", view)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// readySelector matches once the dashboard has drawn the chart for view
func readySelector(view string) string {
	if view == "" {
		return `body[data-ready]`
	}
	return fmt.Sprintf(`body[data-ready=%q]`, view)
}

// outputPath keeps an explicit path and otherwise names the PNG after the
// view and capture time inside the snapshots directory
func outputPath(paths *config.Paths, out, view string, now time.Time) string {
	if out == "" {
		if view == "" {
			view = "dashboard"
		}
		out = fmt.Sprintf("%s-%s.png", view, now.Format("20060102-150405"))
	}
	if filepath.IsAbs(out) || strings.ContainsRune(out, filepath.Separator) {
		return out
	}
	return paths.SnapshotPath(out)
}
