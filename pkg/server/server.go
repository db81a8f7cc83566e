package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"corvid-labs/vigil/pkg/config"
	"corvid-labs/vigil/pkg/schedule"
)

const shutdownTimeout = 10 * time.Second

// AdminServer exposes operational endpoints while vigil runs in
// scheduled or watch mode: a health check, scheduler status and the
// Prometheus metrics endpoint.
type AdminServer struct {
	config     *config.MetricsConfig
	metrics    http.Handler
	scheduler  *schedule.Scheduler
	logger     *slog.Logger
	httpServer *http.Server
	mu         sync.RWMutex
	isRunning  bool
}

// NewAdminServer creates an admin server. metrics may be nil when
// metrics are disabled; the scheduler may be nil in watch mode.
func NewAdminServer(cfg *config.MetricsConfig, metrics http.Handler, scheduler *schedule.Scheduler, logger *slog.Logger) *AdminServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminServer{
		config:    cfg,
		metrics:   metrics,
		scheduler: scheduler,
		logger:    logger.With("component", "server"),
	}
}

// Start begins serving and blocks until ctx is cancelled or the
// listener fails.
func (s *AdminServer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("admin server is already running")
	}
	s.isRunning = true

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("admin server listening",
			"address", s.config.ListenAddress,
			"metrics_path", s.config.Path,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("admin server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown drains in-flight requests and stops the listener.
func (s *AdminServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.isRunning = false
	s.logger.Info("admin server stopped")
	if err != nil {
		return fmt.Errorf("admin server shutdown: %w", err)
	}
	return nil
}

// IsRunning reports whether the server is accepting requests.
func (s *AdminServer) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler.
func (s *AdminServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	if s.metrics != nil {
		path := s.config.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, s.metrics)
	}
	return mux
}

func (s *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// statusResponse is the /status payload.
type statusResponse struct {
	Status    string     `json:"status"`
	Scheduler bool       `json:"scheduler_running"`
	NextRun   *time.Time `json:"next_run,omitempty"`
}

func (s *AdminServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: "ok"}
	if s.scheduler != nil {
		resp.Scheduler = s.scheduler.IsRunning()
		resp.NextRun = s.scheduler.NextRun()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
