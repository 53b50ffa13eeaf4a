package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/wdpkr/zillowdata/internal/config"
	"github.com/wdpkr/zillowdata/internal/dataset"
	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/files"
	"github.com/wdpkr/zillowdata/internal/infrastructure"
	customMiddleware "github.com/wdpkr/zillowdata/internal/middleware"
	"github.com/wdpkr/zillowdata/internal/services"
	handlers "github.com/wdpkr/zillowdata/internal/transport/http"
	ws "github.com/wdpkr/zillowdata/internal/websocket"
	"github.com/wdpkr/zillowdata/pkg/contracts"
	"github.com/wdpkr/zillowdata/pkg/contracts/events"
)

// AppName is logged at startup
const AppName = "Zillow Data Dashboard"

// compressibleTypes are gzip-encoded by the router; PNG charts are not
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/csv",
	"application/javascript",
	"application/json",
	"application/geo+json",
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	ErrorHandler  *apperrors.ErrorHandler
	Store         *dataset.Store
	ViewService   *services.ViewService
	HealthService *services.HealthService
	WebSocketHub  *ws.Hub
	FrontendFS    fs.FS

	openBrowser bool
}

// Option customizes NewApplication
type Option func(*Application)

// WithLogger replaces the process logger built from configuration
func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) { a.Logger = logger }
}

// WithBrowser opens the dashboard in the default browser once it is ready
func WithBrowser(open bool) Option {
	return func(a *Application) { a.openBrowser = open }
}

// NewApplication wires every component from cfg. frontendFS holds
// index.html and static/; it may be nil for API-only use.
func NewApplication(cfg *config.Config, frontendFS fs.FS, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}

	app := &Application{
		Config:     cfg,
		Paths:      config.PathsFor(cfg),
		FrontendFS: frontendFS,
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.Logger == nil {
		logger, err := infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		app.Logger = logger
	}

	app.Logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.GetFullVersionString()))

	if err := app.Paths.EnsureDirectories(app.Logger); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	app.OTelProviders = providers

	metrics, err := infrastructure.CreateDashboardMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	app.Metrics = metrics

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()
	return app, nil
}

// initializeServices builds the dataset store, the view pipeline and the
// services on top of them
func (a *Application) initializeServices() error {
	cfg := a.Config
	a.ErrorHandler = apperrors.NewErrorHandler(a.Logger, cfg.Logging.Development)

	store, err := NewStore(cfg, a.Logger, a.Metrics)
	if err != nil {
		return err
	}
	a.Store = store

	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics, ws.OptionsFrom(cfg.WebSocket))
	a.ViewService = NewViewService(cfg, a.Store, a.Paths, a.Metrics, a.Logger)
	a.HealthService = services.NewHealthService(a.Store, a.WebSocketHub, a.Logger)

	a.WebSocketHub.SetRequestHandler(a.ViewService)
	a.Store.OnLoaded(a.broadcastLoaded)
	return nil
}

// broadcastLoaded tells every session that views can now be computed. It
// runs on the loading goroutine, so the send happens in the background.
func (a *Application) broadcastLoaded(snap *dataset.Snapshot) {
	stats := snap.Datasets()
	ids := make([]string, 0, len(stats))
	for _, ds := range stats {
		ids = append(ids, string(ds.ID))
	}

	go a.WebSocketHub.Broadcast(events.MessageTypeDatasetsLoaded, events.DatasetsLoaded{
		LoadID:   snap.LoadID,
		LoadedAt: snap.LoadedAt,
		Duration: snap.Duration.String(),
		Datasets: ids,
	})
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// Safe for WebSocket: neither wraps the ResponseWriter
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Set before any Route or Mount so every subrouter inherits them
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	wsHandler := handlers.NewWebSocketHandler(a.WebSocketHub, ws.NewUpgrader(a.Config.WebSocket), a.Logger, a.ErrorHandler)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle("/ws", wsHandler)

	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.WebSocketHub)
	r.Get("/metrics", metricsHandler.Prometheus)

	var dashboard *handlers.DashboardHandler
	if a.FrontendFS != nil {
		var err error
		if dashboard, err = handlers.NewDashboardHandler(a.FrontendFS, a.Logger); err != nil {
			return err
		}
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS → rate limit
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.corsConfig()))
		}
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.ErrorHandler).Handler)
		}
		r.Use(customMiddleware.Compress(5, compressibleTypes...))

		a.setupAPIRoutes(r, metricsHandler)

		if dashboard != nil {
			r.Get("/", dashboard.ServeDashboard)
			r.Get("/static/*", dashboard.ServeStatic)
		}
	})

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, metricsHandler *handlers.MetricsHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		viewHandler := handlers.NewViewHandler(a.ViewService, a.Logger, a.ErrorHandler)
		r.Mount("/views", viewHandler.Routes())
		r.Get("/states", viewHandler.ListStates)
		r.Get("/greeting", viewHandler.Greeting)

		datasetHandler := handlers.NewDatasetHandler(a.ViewService, a.Logger, a.ErrorHandler)
		r.Mount("/datasets", datasetHandler.Routes())

		filesHandler := handlers.NewFilesHandler(files.NewDiscovery(a.Paths), a.Logger, a.ErrorHandler)
		r.Mount("/files", filesHandler.Routes())

		r.Get("/ws/stats", metricsHandler.WebSocketStats)
		r.Post("/client-log", handlers.NewClientLogHandler(a.Logger, a.ErrorHandler).Handle)
	})
}

// corsConfig allows the configured origins plus the server's own address
func (a *Application) corsConfig() customMiddleware.CORSConfig {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	for _, o := range a.Config.Security.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "X-Requested-With"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Start starts the hub, the optional preload and the HTTP server. cancel is
// called when the server stops unexpectedly.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	listener, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, listener, cancel)
}

// Serve is Start on an existing listener
func (a *Application) Serve(ctx context.Context, listener net.Listener, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("address", listener.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.WebSocketHub.Start()

	if a.Config.Dashboard.PreloadOnStart {
		go a.preload()
	}

	go func() {
		if err := a.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			if cancel != nil {
				cancel()
			}
		}
	}()

	url := "http://" + browserHost(listener.Addr())
	a.Logger.InfoContext(ctx, "Application started", slog.String("url", url))

	if a.openBrowser {
		go a.openWhenReady(ctx, url)
	}
	return nil
}

// preload warms the dataset store in the background. Its lifetime is bounded
// by the store's load timeout, not by any request.
func (a *Application) preload() {
	ctx := context.Background()
	if _, err := a.Store.Load(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Dataset preload failed; the next request will retry",
			slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "Datasets preloaded", slog.Int("datasets", len(a.Store.Stats().Datasets)))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.WarnContext(ctx, "Error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or ctx ends
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx, stop); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	return a.Stop(context.Background())
}

// performStartupHealthCheck verifies the output directories are writable
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	directories := map[string]string{
		"Logs":      a.Paths.LogsDir,
		"Exports":   a.Paths.ExportsDir,
		"Snapshots": a.Paths.SnapshotsDir,
	}
	for name, dir := range directories {
		if dir == "" {
			continue
		}
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
			continue
		}
		os.Remove(testFile)
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.DebugContext(ctx, "Startup health check passed")
	return nil
}

// openWhenReady polls the health endpoint and then opens the browser
func (a *Application) openWhenReady(ctx context.Context, url string) {
	client := &http.Client{Timeout: time.Second}
	const maxRetries = 10

	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		resp, err := client.Get(url + "/api/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				if err := openBrowser(ctx, url); err != nil {
					a.Logger.WarnContext(ctx, "Failed to open browser", slog.String("error", err.Error()))
					fmt.Printf("\n%s is running at %s\n\n", AppName, url)
				}
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}

	a.Logger.ErrorContext(ctx, "Server did not become ready for browser opening",
		slog.String("url", url),
		slog.Int("max_retries", maxRetries))
}

// browserHost turns a listener address into something a browser can open
func browserHost(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if ip := net.ParseIP(host); ip == nil || ip.IsUnspecified() {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
