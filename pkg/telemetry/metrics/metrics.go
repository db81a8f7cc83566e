package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"corvid-labs/vigil/pkg/engine"
)

// Collector tracks engine activity on a private Prometheus registry.
//
// Metrics:
//   - vigil_runs_total: completed runs
//   - vigil_run_duration_seconds: wall-clock run duration
//   - vigil_rules_total: rule evaluations by status
//   - vigil_rule_duration_seconds: per-rule evaluation duration
//   - vigil_rows_evaluated_total: rows scanned across all rules
//   - vigil_violations_total: violations by severity
type Collector struct {
	registry *prometheus.Registry

	runsTotal    prometheus.Counter
	runDuration  prometheus.Histogram
	rulesTotal   *prometheus.CounterVec
	ruleDuration prometheus.Histogram
	rowsTotal    prometheus.Counter
	violations   *prometheus.CounterVec
}

// NewCollector creates and registers the engine metrics. namespace
// prefixes every metric name; empty means "vigil".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "vigil"
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),

		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of completed rule runs",
		}),

		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of rule runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~82s
		}),

		rulesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_total",
			Help:      "Total number of rule evaluations by status",
		}, []string{"status"}),

		ruleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rule_duration_seconds",
			Help:      "Duration of single-rule evaluations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}),

		rowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_evaluated_total",
			Help:      "Total number of rows scanned across all rules",
		}),

		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Total number of violations found, by rule severity",
		}, []string{"severity"}),
	}

	c.registry.MustRegister(
		c.runsTotal,
		c.runDuration,
		c.rulesTotal,
		c.ruleDuration,
		c.rowsTotal,
		c.violations,
	)

	return c
}

// ObserveRule records one rule result. Safe for concurrent use; the
// engine calls it from worker goroutines.
func (c *Collector) ObserveRule(result *engine.RuleResult) {
	c.rulesTotal.WithLabelValues(string(result.Status)).Inc()
	c.ruleDuration.Observe(result.Duration.Seconds())
	c.rowsTotal.Add(float64(result.TotalRows))
	if result.ViolationCount > 0 {
		c.violations.WithLabelValues(string(result.Severity)).Add(float64(result.ViolationCount))
	}
}

// ObserveRun records a completed run.
func (c *Collector) ObserveRun(result *engine.RunResult) {
	c.runsTotal.Inc()
	c.runDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
}

// Registry exposes the private registry, for tests and the handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
