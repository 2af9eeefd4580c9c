// Package claims wires the badge claim pipeline: event registration, the
// claim gate sequence, badge reads and the stale reservation monitor.
package claims

import (
	"log/slog"

	"presence/internal/claims/handler"
	"presence/internal/claims/service"
)

// Service exposes registration, claims and badge reads.
type Service = service.Service

// Handler wires HTTP endpoints to the claim service.
type Handler = handler.Handler

// Monitor reports reservations that outlived their TTL.
type Monitor = service.ReservationMonitor

// NewService constructs the claim service with required dependencies.
func NewService(events service.EventStore, ledger service.ClaimLedger, relay service.Relayer, verifier service.Verifier, opts ...service.Option) *Service {
	return service.New(events, ledger, relay, verifier, opts...)
}

// NewHandler constructs the HTTP handler for the public and organizer routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}

func NewMonitor(ledger service.StaleCounter, opts ...service.MonitorOption) *Monitor {
	return service.NewReservationMonitor(ledger, opts...)
}
