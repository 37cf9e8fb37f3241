// Package api hosts the HTTP server, middleware and REST handlers for
// operator access. Notable routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/subsystems for the subsystem catalog.
//   - POST /v1/searches to run a search and return its outcome.
package api
