// Package app wires the StudentPulse dashboard together: configuration,
// logging, OpenTelemetry, the student dataset, the websocket hub, the
// dashboard and health services, and the chi router.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, optional YAML, STUDENTPULSE_* env)
//	2. Initialize the slog logger and OpenTelemetry providers
//	3. Build the row source (CSV, XLSX or Google Sheets) and DataSource
//	4. Create the websocket hub and the dashboard and health services
//	5. Register middleware and routes, then create the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return app.Run()
//
// # Graceful Shutdown
//
// Run stops on SIGINT or SIGTERM. In-flight requests finish within the
// configured shutdown timeout, websocket clients receive a close frame and
// telemetry is flushed. The package never calls os.Exit.
package app
