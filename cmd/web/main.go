package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/wdpkr/zillowdata/internal/app"
	"github.com/wdpkr/zillowdata/internal/config"
	"github.com/wdpkr/zillowdata/pkg/contracts"
)

// Embedded dashboard page and assets
//
//go:embed all:frontend
var frontendFiles embed.FS

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to the well-known locations)")
	port := flag.Int("port", 0, "HTTP port, overrides server.port")
	open := flag.Bool("open", false, "open the dashboard in the default browser once it is ready")
	version := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	if err := run(*configPath, *port, *open); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configPath string, port int, open bool) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	frontendFS, err := fs.Sub(frontendFiles, "frontend")
	if err != nil {
		return fmt.Errorf("open embedded frontend: %w", err)
	}

	application, err := app.NewApplication(cfg, frontendFS, app.WithBrowser(open))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(context.Background())
}
