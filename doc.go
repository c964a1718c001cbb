// Package soilboard provides an embeddable live dashboard for a
// soil-moisture sensor backend.
//
// SoilBoard periodically fetches soil-moisture readings for a trailing time
// window and the time the plants were last watered, renders the readings as
// a chart, and shows a countdown to the next refresh. The time window can be
// changed from the dashboard at any moment; a change triggers an immediate
// refresh and restarts the polling cadence.
//
// # Quick Start
//
//	db, _ := soilboard.New(soilboard.WithBackendURL("http://localhost:3000"))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	db.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// SoilBoard uses the functional options pattern for configuration:
//
//	db, err := soilboard.New(
//	    soilboard.WithBackendURL("https://garden.example.com/api"),
//	    soilboard.WithPollingInterval(30 * time.Second),
//	    soilboard.WithDefaultRange(24 * time.Hour),
//	    soilboard.WithHeaders("Authorization", "Bearer token"),
//	    soilboard.WithPort(9090),
//	)
//
// # Backend Contract
//
// The backend must serve two JSON endpoints:
//
//	GET /reading?since=<seconds>  ->  [{"time": 1720188180, "soil_moisture": 42}, ...]
//	GET /water                    ->  {"last_watered": 1720188180}
//
// Times are Unix epoch seconds. Readings are expected in ascending time order.
//
// # Architecture
//
// SoilBoard consists of several internal packages (under internal/):
//
//   - internal/poller: The poll loop, countdown, backend client and range control
//   - internal/view: Turns parsed data into chart frames and status text
//   - internal/store: In-memory view state with pub/sub for live updates
//   - internal/chart: SVG chart rendering
//   - internal/metrics: Prometheus instrumentation
//   - internal/server: HTTP server with REST API, SSE and WebSocket
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package soilboard
