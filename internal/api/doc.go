// Package api implements the bridge's status HTTP server.
//
// This package provides:
//   - A health endpoint aggregating the store, broker and mirror checks
//   - Prometheus exposition of the ingestion metrics
//   - A JSON status document with runtime and connection-pool statistics
//   - Middleware stack (request ID, logging, recovery)
//
// The server is read-only. It never touches the ingestion path, so a slow
// scrape cannot delay message handling.
//
// Routes:
//
//	GET /api/v1/health   200 when every component is healthy, 503 otherwise
//	GET /api/v1/metrics  Prometheus text format
//	GET /api/v1/status   runtime statistics
package api
