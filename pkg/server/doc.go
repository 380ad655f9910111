// Package server provides the admin/ops HTTP surface for the governance
// engine.
//
// This is the management surface operators consume; it is never on the
// admission hot path. Routes:
//
//	GET  /healthz        - liveness probe
//	GET  /metrics        - Prometheus metrics
//	GET  /v1/status      - per-principal usage and block standing (?principal=)
//	GET  /v1/statistics  - system-wide counters and quota snapshot
//	POST /v1/reset       - clear a principal's windows and blocks
//
// The server handles graceful shutdown and OS signals (SIGTERM, SIGINT).
package server
