// Package api hosts the HTTP server, middleware, and REST handlers for the
// archive read side. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/games/random and /v1/games/{show_id} for board JSON.
//   - POST /v1/clues/{clue_id}/grade to grade a free-text response.
package api
