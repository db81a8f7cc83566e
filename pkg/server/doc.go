// Package server provides the admin HTTP server used by long-running
// modes (schedule and watch).
//
// The server exposes three endpoints:
//
//   - /healthz: liveness check, always returns 200 while serving
//   - /status: scheduler state and next scheduled run
//   - the configured metrics path (default /metrics): Prometheus
//     metrics, when metrics are enabled
//
// It is never started for one-shot runs; the CLI starts it only when
// vigil stays resident.
package server
