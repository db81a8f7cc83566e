package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work. Jobs receive the scheduler's
// context and report failures through the returned error.
type Job func(ctx context.Context) error

// specAliases map friendly schedule names to cron expressions.
var specAliases = map[string]string{
	"hourly": "0 * * * *",
	"daily":  "0 6 * * *",
	"weekly": "0 6 * * 1",
}

// NormalizeSpec resolves friendly aliases ("hourly", "daily",
// "weekly") to standard five-field cron expressions. Anything else
// passes through unchanged.
func NormalizeSpec(spec string) string {
	if expr, ok := specAliases[spec]; ok {
		return expr
	}
	return spec
}

// ValidateSpec reports whether spec is a usable schedule, after alias
// resolution.
func ValidateSpec(spec string) error {
	if spec == "" {
		return fmt.Errorf("schedule cannot be empty")
	}
	if _, err := cron.ParseStandard(NormalizeSpec(spec)); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// Scheduler runs named jobs on cron schedules. A job whose previous
// invocation is still in flight is skipped rather than run
// concurrently with itself.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	mu      sync.Mutex
	running bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		logger: logger.With("component", "schedule"),
	}
}

// Add registers a job under a schedule. The spec accepts standard
// five-field cron expressions and the aliases NormalizeSpec resolves.
// Add must be called before Start.
func (s *Scheduler) Add(ctx context.Context, name, spec string, job Job) error {
	if err := ValidateSpec(spec); err != nil {
		return err
	}

	var inFlight atomic.Bool
	_, err := s.cron.AddFunc(NormalizeSpec(spec), func() {
		if !inFlight.CompareAndSwap(false, true) {
			s.logger.Warn("skipping scheduled job, previous invocation still running",
				"job", name,
			)
			return
		}
		defer inFlight.Store(false)

		s.logger.Info("starting scheduled job", "job", name)
		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("scheduled job failed",
				"job", name,
				"error", err,
				"duration", time.Since(start),
			)
			return
		}
		s.logger.Info("scheduled job completed",
			"job", name,
			"duration", time.Since(start),
		)
	})
	if err != nil {
		return fmt.Errorf("schedule job %q: %w", name, err)
	}

	s.logger.Info("job scheduled", "job", name, "schedule", NormalizeSpec(spec))
	return nil
}

// Start begins running scheduled jobs. The scheduler stops itself
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// IsRunning reports whether the scheduler has been started.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the earliest upcoming job time, or nil when nothing
// is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	var next *time.Time
	for _, entry := range s.cron.Entries() {
		t := entry.Next
		if t.IsZero() {
			continue
		}
		if next == nil || t.Before(*next) {
			next = &t
		}
	}
	return next
}
