package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// PrunerConfig controls retention enforcement.
type PrunerConfig struct {
	// RetentionDays is how long run records are kept. 0 keeps records
	// forever.
	RetentionDays int

	// MaxRecords caps the total record count. 0 means unlimited.
	MaxRecords int64
}

// Pruner enforces the retention policy on a history store. Pruning runs
// in two phases: age-based deletion, then count-based deletion of the
// oldest surplus records.
type Pruner struct {
	store  Store
	config PrunerConfig
	logger *slog.Logger
}

// NewPruner creates a retention pruner.
func NewPruner(store Store, config PrunerConfig, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:  store,
		config: config,
		logger: logger.With(slog.String("component", "history.pruner")),
	}
}

// Prune applies both retention phases and returns the total number of
// records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)
		deleted, err := p.store.DeleteBefore(ctx, cutoff)
		if err != nil {
			return total, fmt.Errorf("prune by age: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		count, err := p.store.Count(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count: %w", err)
		}
		if surplus := count - p.config.MaxRecords; surplus > 0 {
			deleted, err := p.store.DeleteOldest(ctx, surplus)
			if err != nil {
				return total, fmt.Errorf("prune by count: %w", err)
			}
			total += deleted
		}
	}

	if total > 0 {
		p.logger.Info("pruned run history",
			slog.Int64("deleted", total),
			slog.Int("retention_days", p.config.RetentionDays),
			slog.Int64("max_records", p.config.MaxRecords))
	} else {
		p.logger.Debug("no run records pruned")
	}

	return total, nil
}
