// Package telemetry groups vigil's observability concerns: structured
// logging, Prometheus metrics, and optional OpenTelemetry tracing.
//
// Subpackages:
//   - logging: slog-based structured logging with sensitive-field redaction
//   - metrics: engine metrics on a private Prometheus registry
//   - tracing: OTLP span export, disabled by default
package telemetry
