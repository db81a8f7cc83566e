package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"corvid-labs/vigil/pkg/datasource"
	"corvid-labs/vigil/pkg/rules"
	"corvid-labs/vigil/pkg/vex/ast"
)

// Metrics receives engine activity. The telemetry package provides a
// Prometheus-backed implementation. Implementations must be safe for
// concurrent use: ObserveRule is called from worker goroutines.
type Metrics interface {
	// ObserveRule is called once per rule result.
	ObserveRule(result *RuleResult)

	// ObserveRun is called once per completed run.
	ObserveRun(result *RunResult)
}

// Engine runs rule sets against data sources. An Engine is stateless
// between runs and safe for concurrent use.
type Engine struct {
	resolver datasource.Resolver
	config   *Config
	logger   *slog.Logger
	metrics  Metrics
	tracer   trace.Tracer
}

// New creates an engine. A nil config gets defaults, a nil logger the
// process default.
func New(resolver datasource.Resolver, config *Config, logger *slog.Logger) (*Engine, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		resolver: resolver,
		config:   config,
		logger:   logger.With(slog.String("component", "engine")),
		tracer:   trace.NewNoopTracerProvider().Tracer("vigil/engine"),
	}, nil
}

// SetMetrics attaches a metrics sink. Call before Run.
func (e *Engine) SetMetrics(m Metrics) {
	e.metrics = m
}

// SetTracer attaches a tracer. Call before Run.
func (e *Engine) SetTracer(t trace.Tracer) {
	if t != nil {
		e.tracer = t
	}
}

// Run evaluates every rule and returns one result per rule, in definition
// order. Rules run concurrently up to the configured worker count; failures
// stay contained to their own result. Cancelling ctx stops new rules from
// starting while rules in flight run on to their own timeouts; the partial
// result is still returned, with never-started rules errored and Cancelled
// set.
func (e *Engine) Run(ctx context.Context, ruleSet []*rules.Rule) (*RunResult, error) {
	if len(ruleSet) == 0 {
		return nil, ErrNoRules
	}

	run := &RunResult{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Results:   make([]*RuleResult, len(ruleSet)),
	}

	ctx, span := e.tracer.Start(ctx, "engine.run",
		trace.WithAttributes(
			attribute.String("run.id", run.ID),
			attribute.Int("run.rules", len(ruleSet)),
		))
	defer span.End()

	e.logger.Info("starting run",
		slog.String("run_id", run.ID),
		slog.Int("rules", len(ruleSet)),
		slog.Int("workers", e.config.Workers))

	var g errgroup.Group
	g.SetLimit(e.config.Workers)

	for i, rule := range ruleSet {
		g.Go(func() error {
			// Cancellation is cooperative: checked before each rule
			// starts, never mid-rule.
			if err := ctx.Err(); err != nil {
				run.Results[i] = &RuleResult{
					RuleID:   rule.ID,
					RuleName: rule.Name,
					Severity: rule.Severity,
					Status:   StatusError,
					Err:      fmt.Sprintf("run cancelled: %v", err),
				}
				return err
			}
			run.Results[i] = e.evaluateRule(ctx, rule)
			if e.metrics != nil {
				e.metrics.ObserveRule(run.Results[i])
			}
			return nil
		})
	}

	// Worker errors only ever report cancellation; every evaluation
	// outcome lives in its slot of run.Results.
	if err := g.Wait(); err != nil {
		run.Cancelled = true
	}

	run.FinishedAt = time.Now().UTC()
	run.Summary = summarize(run.Results)

	if e.metrics != nil {
		e.metrics.ObserveRun(run)
	}

	e.logger.Info("run finished",
		slog.String("run_id", run.ID),
		slog.Duration("duration", run.FinishedAt.Sub(run.StartedAt)),
		slog.Int("passed", run.Summary.PassedRules),
		slog.Int("failed", run.Summary.FailedRules),
		slog.Int("errored", run.Summary.ErroredRules),
		slog.Int("skipped", run.Summary.SkippedRules),
		slog.Int("violations", run.Summary.Violations))

	return run, nil
}

// evaluateRule runs one rule to completion: resolve the source, scan rows
// in order, filter, and check the condition. All failure modes end up in
// the returned result, never in a panic or a lost rule.
func (e *Engine) evaluateRule(ctx context.Context, rule *rules.Rule) *RuleResult {
	start := time.Now()

	res := &RuleResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Severity: rule.Severity,
		Status:   StatusPass,
	}
	defer func() {
		res.Duration = time.Since(start)
	}()

	if rule.LoadErr != nil {
		res.Status = StatusError
		res.Err = rule.LoadErr.Error()
		e.logger.Warn("rule failed to load",
			slog.String("rule_id", rule.ID),
			slog.String("error", res.Err))
		return res
	}
	if !rule.Enabled {
		res.Status = StatusSkipped
		return res
	}

	ruleCtx, cancel := context.WithTimeout(ctx, e.config.RuleTimeout)
	defer cancel()

	ruleCtx, span := e.tracer.Start(ruleCtx, "engine.rule",
		trace.WithAttributes(attribute.String("rule.id", rule.ID)))
	defer span.End()

	src, err := e.resolver.Resolve(ruleCtx, rule.DataSource)
	if err != nil {
		return e.failRule(ruleCtx, res, rule, err)
	}

	iter, err := src.Open(ruleCtx)
	if err != nil {
		return e.failRule(ruleCtx, res, rule, datasource.NewResolutionError(rule.DataSource, err))
	}
	defer iter.Close()

	condFields := rule.ConditionFields()

	for rowIndex := 0; ; rowIndex++ {
		row, err := iter.Next(ruleCtx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return e.failRule(ruleCtx, res, rule, err)
		}
		res.TotalRows++

		if rule.FilterExpr != nil {
			included, err := Evaluate(rule.FilterExpr, row)
			if err != nil || !included {
				// Rows the filter rejects or cannot judge are outside
				// the rule's scope, not passes and not violations.
				continue
			}
		}
		res.Considered++

		pass, err := Evaluate(rule.CondExpr, row)
		if err != nil {
			e.recordViolation(res, rowIndex, row, condFields, err.Error())
			continue
		}
		if pass {
			res.Passed++
			continue
		}
		e.recordViolation(res, rowIndex, row, condFields, "")
	}

	if res.ViolationCount > 0 {
		res.Status = StatusFail
	}

	e.logger.Debug("rule evaluated",
		slog.String("rule_id", rule.ID),
		slog.String("status", string(res.Status)),
		slog.Int("total_rows", res.TotalRows),
		slog.Int("considered", res.Considered),
		slog.Int("violations", res.ViolationCount))

	return res
}

// failRule records err as the rule's fatal failure. When the rule's
// deadline has passed the timeout explains the failure better than
// whatever error the deadline provoked. Counts from a partial scan are
// dropped so they cannot be mistaken for complete findings.
func (e *Engine) failRule(ctx context.Context, res *RuleResult, rule *rules.Rule, err error) *RuleResult {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = &TimeoutError{RuleID: rule.ID, Timeout: e.config.RuleTimeout}
	}
	res.Status = StatusError
	res.Err = err.Error()
	res.TotalRows = 0
	res.Considered = 0
	res.Passed = 0
	res.ViolationCount = 0
	res.Violations = nil
	e.logger.Warn("rule failed",
		slog.String("rule_id", rule.ID),
		slog.String("error", res.Err))
	return res
}

// recordViolation counts a violation and, below the cap, captures the
// row's condition fields. cause is empty for a plain false condition.
func (e *Engine) recordViolation(res *RuleResult, rowIndex int, row datasource.Row, condFields []string, cause string) {
	res.ViolationCount++
	if len(res.Violations) >= e.config.MaxViolationsPerRule {
		return
	}
	res.Violations = append(res.Violations, Violation{
		RowIndex: rowIndex,
		Fields:   snapshot(row, condFields),
		Cause:    cause,
	})
}

// snapshot captures the named fields from a row. Absent fields appear as
// explicit nulls, showing what the evaluator saw.
func snapshot(row datasource.Row, fields []string) map[string]ast.Value {
	snap := make(map[string]ast.Value, len(fields))
	for _, name := range fields {
		snap[name] = row[name]
	}
	return snap
}
