package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks EventStore,ClaimLedger,Relayer,Verifier,StaleCounter,AuditPublisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"presence/internal/claims/metrics"
	"presence/internal/claims/models"
	"presence/internal/relayer"
	"presence/pkg/attrs"
	audit "presence/pkg/platform/audit"
	"presence/pkg/requestcontext"
	"presence/pkg/secrets"
)

var tracer = otel.Tracer("presence/claims")

type EventStore interface {
	Create(ctx context.Context, e *models.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindByClaimToken(ctx context.Context, token string) (*models.Event, error)
	FindByLedgerEventID(ctx context.Context, ledgerEventID string) (*models.Event, error)
}

type ClaimLedger interface {
	Exists(ctx context.Context, eventID uuid.UUID, identity string) (bool, error)
	Reserve(ctx context.Context, eventID uuid.UUID, identity string, now time.Time, ttl time.Duration) (*models.ClaimRecord, error)
	Commit(ctx context.Context, eventID uuid.UUID, identity string, reservedAt time.Time, txHash string, now time.Time) error
	Release(ctx context.Context, eventID uuid.UUID, identity string, reservedAt time.Time) error
	ListCommittedByIdentity(ctx context.Context, identity string) ([]*models.ClaimRecord, error)
}

type Relayer interface {
	RegisterEventAndWait(ctx context.Context, metadataRef string, maxWait time.Duration) (*relayer.Receipt, error)
	MintBadge(ctx context.Context, ledgerEventID, recipient string) (*relayer.Future, error)
}

type Verifier interface {
	Verify(message, signatureHex, claimedIdentity string) error
}

// StaleCounter counts pending reservations that expired without settling.
type StaleCounter interface {
	CountStalePending(ctx context.Context, now time.Time) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	DefaultClaimWait      = 20 * time.Second
	DefaultRegisterWait   = 30 * time.Second
	DefaultReservationTTL = 10 * time.Minute
)

// Service runs event registration and the claim pipeline. It holds no state
// of its own beyond in-flight settlements; events and claims live in the stores.
type Service struct {
	events   EventStore
	claims   ClaimLedger
	relayer  Relayer
	verifier Verifier

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics

	claimWait      time.Duration
	registerWait   time.Duration
	reservationTTL time.Duration
	newToken       func() (string, error)

	settlements sync.WaitGroup
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClaimWait bounds how long a claim request waits for mint finality
// before answering pending.
func WithClaimWait(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.claimWait = d
		}
	}
}

// WithRegisterWait bounds how long registration waits for the ledger.
func WithRegisterWait(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.registerWait = d
		}
	}
}

func WithReservationTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.reservationTTL = d
		}
	}
}

// WithTokenGenerator replaces the claim token source. Tests only.
func WithTokenGenerator(fn func() (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.newToken = fn
		}
	}
}

// New constructs a Service.
func New(events EventStore, claims ClaimLedger, relay Relayer, verifier Verifier, opts ...Option) *Service {
	s := &Service{
		events:         events,
		claims:         claims,
		relayer:        relay,
		verifier:       verifier,
		logger:         slog.Default(),
		claimWait:      DefaultClaimWait,
		registerWait:   DefaultRegisterWait,
		reservationTTL: DefaultReservationTTL,
		newToken:       secrets.Generate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WaitForSettlements blocks until every background settlement has finished.
// Settlements end when the relayer resolves their mint, so stop the relayer first.
func (s *Service) WaitForSettlements() {
	s.settlements.Wait()
}

// logAudit writes the audit log line and forwards the event to the publisher.
// Well-known keys become first-class audit fields; the rest become attributes.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Category:      event.Category(),
		Subject:       attrs.ExtractString(attributes, "identity"),
		Action:        string(event),
		EventID:       attrs.ExtractString(attributes, "event_id"),
		LedgerEventID: attrs.ExtractString(attributes, "ledger_event_id"),
		Reason:        attrs.ExtractString(attributes, "reason"),
		RequestID:     requestID,
		Attributes:    attrs.ToStrings(attributes, "identity", "event_id", "ledger_event_id", "reason", "request_id"),
	})
}
