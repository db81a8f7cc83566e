// Package tracing exports run and rule spans over OTLP/gRPC when the
// telemetry configuration enables it. The default is a noop tracer; a
// compliance scan should not require a collector to run.
package tracing
