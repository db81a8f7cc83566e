package git

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// ReloadFunc is called when rule files change. It receives the full
// path to the rule directory inside the clone and should load and
// validate the rules found there.
type ReloadFunc func(rulesPath string) error

// Poller periodically pulls the rule repository and triggers a reload
// when rule files change. Commits that touch no rule files advance the
// tracked SHA without reloading.
type Poller struct {
	repo          *Repository
	interval      time.Duration
	reloadFn      ReloadFunc
	logger        *slog.Logger
	stopCh        chan struct{}
	lastCommitSHA string
	mu            sync.RWMutex
	running       bool
}

// NewPoller creates a poller for the given repository.
func NewPoller(repo *Repository, interval time.Duration, logger *slog.Logger, reloadFn ReloadFunc) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		repo:     repo,
		interval: interval,
		reloadFn: reloadFn,
		logger:   logger.With("component", "rules.git"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins polling in a background goroutine. The repository must
// already be cloned.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}

	commit, err := p.repo.CurrentCommit()
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to get initial commit: %w", err)
	}
	p.lastCommitSHA = commit.SHA
	p.running = true
	p.mu.Unlock()

	p.logger.Info("rule repository poller started",
		"interval", p.interval,
		"commit", shortSHA(commit.SHA),
	)

	go p.loop(ctx)
	return nil
}

// Stop stops the polling loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// IsRunning reports whether the poller is active.
func (p *Poller) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// LastCommitSHA returns the commit rules were last loaded from.
func (p *Poller) LastCommitSHA() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastCommitSHA
}

func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.Check(ctx); err != nil {
				p.logger.Error("rule repository poll failed", "error", err)
			}
		}
	}
}

// Check pulls once and reloads if rule files changed. It can be
// called directly to force a sync outside the poll interval.
func (p *Poller) Check(ctx context.Context) error {
	result, err := p.repo.Pull(ctx)
	if err != nil {
		return fmt.Errorf("failed to pull: %w", err)
	}
	if !result.HadChanges {
		return nil
	}

	p.logger.Info("rule repository changed",
		"from", shortSHA(result.FromSHA),
		"to", shortSHA(result.ToSHA),
		"changed_files", len(result.ChangedFiles),
	)

	if !hasRuleFileChanges(result.ChangedFiles) {
		p.logger.Info("no rule files changed, skipping reload")
		p.mu.Lock()
		p.lastCommitSHA = result.ToSHA
		p.mu.Unlock()
		return nil
	}

	if err := p.reloadFn(p.repo.RulesPath()); err != nil {
		return fmt.Errorf("rule reload failed: %w", err)
	}

	p.mu.Lock()
	p.lastCommitSHA = result.ToSHA
	p.mu.Unlock()

	p.logger.Info("rules reloaded", "commit", shortSHA(result.ToSHA))
	return nil
}

func hasRuleFileChanges(files []string) bool {
	for _, file := range files {
		ext := filepath.Ext(file)
		if ext == ".yaml" || ext == ".yml" {
			return true
		}
	}
	return false
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
