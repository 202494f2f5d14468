package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
)

// RefreshSchedulerConfig holds configuration for the refresh scheduler
type RefreshSchedulerConfig struct {
	// Interval is how often snapshots are checked (default: 5m)
	Interval time.Duration

	// MaxAge is how old a snapshot may get before it is refreshed
	// (default: 15m). Zero refreshes on every tick.
	MaxAge time.Duration
}

// DefaultRefreshSchedulerConfig returns sensible defaults
func DefaultRefreshSchedulerConfig() RefreshSchedulerConfig {
	return RefreshSchedulerConfig{
		Interval: 5 * time.Minute,
		MaxAge:   15 * time.Minute,
	}
}

// StaleRefresher refreshes a collection when its snapshot is too old.
type StaleRefresher interface {
	RefreshIfStale(ctx context.Context, coll core.Collection, maxAge time.Duration) (bool, error)
}

// RefreshScheduler periodically refreshes stale snapshots.
type RefreshScheduler struct {
	refresher StaleRefresher
	config    RefreshSchedulerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRefreshScheduler(refresher StaleRefresher, config RefreshSchedulerConfig) *RefreshScheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultRefreshSchedulerConfig().Interval
	}
	return &RefreshScheduler{
		refresher: refresher,
		config:    config,
	}
}

// Start begins the refresh loop. Returns an error if already running.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("refresh scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Refresh scheduler started",
		log.FieldComponent, log.ComponentScheduler,
		"interval", s.config.Interval,
		"max_age", s.config.MaxAge)

	return nil
}

// Stop signals the loop and waits for the current pass to finish.
func (s *RefreshScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Refresh scheduler stopped gracefully", log.FieldComponent, log.ComponentScheduler)
	case <-ctx.Done():
		slog.WarnContext(ctx, "Refresh scheduler stop timed out", log.FieldComponent, log.ComponentScheduler)
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *RefreshScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *RefreshScheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Check immediately on startup
	s.refreshStale(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshStale(ctx)
		}
	}
}

func (s *RefreshScheduler) refreshStale(ctx context.Context) {
	for _, coll := range core.Collections() {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		ran, err := s.refresher.RefreshIfStale(ctx, coll, s.config.MaxAge)
		if err != nil {
			slog.WarnContext(ctx, "Scheduled refresh failed", log.NewFields().
				WithComponent(log.ComponentScheduler).
				WithOperation(log.OpRefresh).
				WithCollection(coll.String()).
				WithError(err).
				ToSlice()...)
			continue
		}
		if ran {
			slog.DebugContext(ctx, "Scheduled refresh completed",
				log.FieldComponent, log.ComponentScheduler,
				log.FieldCollection, coll)
		}
	}
}
