package service

import (
	"context"
	"log/slog"
	"time"

	"presence/internal/claims/metrics"
)

const DefaultMonitorInterval = time.Minute

// ReservationMonitor reports reservations stuck in pending past their expiry.
// It only observes: expired reservations are reclaimed by a later claim.
type ReservationMonitor struct {
	claims   StaleCounter
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type MonitorOption func(*ReservationMonitor)

func WithMonitorInterval(d time.Duration) MonitorOption {
	return func(m *ReservationMonitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithMonitorLogger(logger *slog.Logger) MonitorOption {
	return func(m *ReservationMonitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMonitorMetrics(mt *metrics.Metrics) MonitorOption {
	return func(m *ReservationMonitor) {
		m.metrics = mt
	}
}

func WithMonitorClock(now func() time.Time) MonitorOption {
	return func(m *ReservationMonitor) {
		if now != nil {
			m.now = now
		}
	}
}

func NewReservationMonitor(claims StaleCounter, opts ...MonitorOption) *ReservationMonitor {
	m := &ReservationMonitor{
		claims:   claims,
		interval: DefaultMonitorInterval,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run checks once immediately, then every interval until ctx is cancelled.
// Store errors are logged and do not stop the loop.
func (m *ReservationMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	_, _ = m.Check(ctx)
	for {
		select {
		case <-ticker.C:
			_, _ = m.Check(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// Check counts stale reservations now, updates the gauge and alerts when any exist.
func (m *ReservationMonitor) Check(ctx context.Context) (int, error) {
	n, err := m.claims.CountStalePending(ctx, m.now())
	if err != nil {
		if ctx.Err() == nil {
			m.logger.ErrorContext(ctx, "stale reservation check failed", "error", err)
		}
		return 0, err
	}
	m.metrics.SetStaleReservations(n)
	if n > 0 {
		m.logger.WarnContext(ctx, "claim reservations expired without settling",
			"alert", "stale_reservation",
			"count", n,
		)
	}
	return n, nil
}
