package notify

import (
	"context"
	"log/slog"

	"corvid-labs/vigil/pkg/engine"
	"corvid-labs/vigil/pkg/rules"
)

// Notifier delivers an alert about a finished run over one channel.
type Notifier interface {
	// Name identifies the channel in logs ("slack", "email").
	Name() string

	// Notify sends the alert. The run is read-only.
	Notify(ctx context.Context, run *engine.RunResult) error
}

// Dispatcher fans a run result out to the configured notifiers when the
// run warrants an alert. Delivery failures are logged and swallowed: a
// dead webhook must never fail a compliance scan.
type Dispatcher struct {
	notifiers   []Notifier
	minSeverity rules.Severity
	logger      *slog.Logger
}

// NewDispatcher creates a dispatcher. Runs alert when a rule errored or
// a rule of at least minSeverity failed.
func NewDispatcher(minSeverity rules.Severity, logger *slog.Logger, notifiers ...Notifier) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		notifiers:   notifiers,
		minSeverity: minSeverity,
		logger:      logger.With(slog.String("component", "notify")),
	}
}

// ShouldNotify reports whether the run contains anything worth alerting
// on: an errored rule, or a failed rule at or above the severity floor.
func (d *Dispatcher) ShouldNotify(run *engine.RunResult) bool {
	for _, res := range run.Results {
		if res.Status == engine.StatusError {
			return true
		}
		if res.Status == engine.StatusFail && res.Severity.AtLeast(d.minSeverity) {
			return true
		}
	}
	return false
}

// Dispatch sends the run to every notifier if it warrants an alert.
func (d *Dispatcher) Dispatch(ctx context.Context, run *engine.RunResult) {
	if len(d.notifiers) == 0 || !d.ShouldNotify(run) {
		return
	}

	for _, n := range d.notifiers {
		if err := n.Notify(ctx, run); err != nil {
			d.logger.Error("notification failed",
				slog.String("channel", n.Name()),
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()))
			continue
		}
		d.logger.Info("notification sent",
			slog.String("channel", n.Name()),
			slog.String("run_id", run.ID))
	}
}

// failedRules returns the run's failed and errored rules in definition
// order, capped at max. Notifications summarize; the report has the rest.
func failedRules(run *engine.RunResult, max int) []*engine.RuleResult {
	var failed []*engine.RuleResult
	for _, res := range run.Results {
		if res.Status != engine.StatusFail && res.Status != engine.StatusError {
			continue
		}
		failed = append(failed, res)
		if len(failed) == max {
			break
		}
	}
	return failed
}
