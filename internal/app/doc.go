// Package app wires the dashboard server together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Build the process logger from configuration
//	2. Initialize OpenTelemetry and the dashboard instruments
//	3. Create the dataset store, view pipeline and WebSocket hub
//	4. Build the view and health services on top of them
//	5. Register middleware and routes on a chi router
//	6. Create the HTTP server
//
// Datasets are not fetched during initialization. When
// dashboard.preload_on_start is set, Start warms the store in the
// background; otherwise the first request that needs data triggers the
// load. Either way every connected WebSocket session receives a
// datasets:loaded event once the load completes.
//
// # Usage
//
//	cfg, err := config.LoadFrom(path)
//	...
//	application, err := app.NewApplication(cfg, frontendFS)
//	...
//	if err := application.Run(ctx); err != nil {
//	    ...
//	}
//
// # Graceful Shutdown
//
// Run returns after SIGINT or SIGTERM once in-flight requests have finished,
// WebSocket sessions have been closed and telemetry has been flushed, all
// bounded by server.shutdown_timeout. The package never calls os.Exit.
package app
