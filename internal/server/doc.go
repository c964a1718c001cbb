// Package server provides the HTTP server for the SoilBoard dashboard and API.
//
// This package is internal to SoilBoard and handles all HTTP concerns:
//
//   - Dashboard serving: the embedded HTML dashboard at "/"
//   - REST API: the state snapshot at "/api/state" and range changes at "/api/range"
//   - Live updates: Server-Sent Events at "/api/sse" and a WebSocket at "/api/ws"
//   - Chart rendering: the soil-moisture chart at "/chart.svg"
//   - Metrics: Prometheus exposition at "/metrics"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the soilboard library should not need to interact with this
// package directly. The server is started by [soilboard.Dashboard.Start].
package server
