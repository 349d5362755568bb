package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/labourhub/adminauth/internal/admin/store"
)

// HousekeepingService periodically clears expired one-time codes and stale
// session records. Neither sweep is load-bearing for correctness, validation
// rejects expired state regardless, but the sweeps keep the admin rows tidy
// and the security posture obvious.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 15 minutes.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker, blocking until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup.
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep clears expired records. The two sweeps are independent; a failure in
// one doesn't stop the other.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()
	now := time.Now().UTC()

	otps, err := s.Store.Admins().ClearExpiredOTPs(ctx, now)
	if err != nil {
		s.Logger.Error("failed to clear expired otps", "error", err)
	}

	sessions, err := s.Store.Admins().ClearExpiredSessions(ctx, now)
	if err != nil {
		s.Logger.Error("failed to clear expired sessions", "error", err)
	}

	if otps > 0 || sessions > 0 {
		s.Logger.Info("housekeeping sweep completed",
			"otps_cleared", otps, "sessions_cleared", sessions)
	}
}
