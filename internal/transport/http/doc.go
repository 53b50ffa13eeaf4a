// Package http implements the HTTP handlers of the dashboard server. It is a
// thin layer between the chi router and the services package: handlers parse
// and validate query parameters, call a service, and write either a JSON
// envelope, a binary body (PNG, CSV, XLSX, GeoJSON) or an RFC 7807 problem.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Dataset Store
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Response Envelope
//
// Successful JSON responses share one shape:
//
//	{"status": "success", "data": ..., "count": n}
//
// count is present on list endpoints only. Every failure goes through
// errors.ErrorHandler, which answers with an RFC 7807 problem document
// carrying a trace_id extension that matches the X-Request-ID header.
//
// # Query Parameters
//
// View endpoints accept year, scale, states (comma list or repeated), state,
// level, bins and amplitude. Chart endpoints also take width and height.
// Malformed values are collected and reported together in a single 400.
//
// # Routes
//
//	GET  /api/views                          ViewHandler.ListViews
//	GET  /api/views/{view}                   ViewHandler.GetView
//	GET  /api/views/{view}/chart.png         ViewHandler.GetChart
//	GET  /api/views/{view}/export.{format}   ViewHandler.Export
//	GET  /api/states                         ViewHandler.ListStates
//	GET  /api/greeting                       ViewHandler.Greeting
//	GET  /api/datasets                       DatasetHandler.ListDatasets
//	GET  /api/datasets/boundaries            DatasetHandler.GetBoundaries
//	GET  /api/health[/ready|/live]           HealthHandler
//	GET  /api/version                        HealthHandler.Version
//	GET  /api/files                          FilesHandler.ListFiles
//	GET  /api/files/{kind}/{name}            FilesHandler.Download
//	GET  /api/ws/stats                       MetricsHandler.WebSocketStats
//	POST /api/client-log                     ClientLogHandler.Handle
//	GET  /metrics                            MetricsHandler.Prometheus
//	GET  /ws                                 WebSocketHandler
//	GET  /                                   DashboardHandler.ServeDashboard
package http
