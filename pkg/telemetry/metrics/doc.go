// Package metrics implements the engine's Metrics interface on a private
// Prometheus registry. The admin server serves the registry while the
// scheduler or watch mode keeps the process alive; one-shot runs record
// metrics that are simply never scraped.
package metrics
