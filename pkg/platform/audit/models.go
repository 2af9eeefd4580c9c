package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers durable facts about issued badges and registered events.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers rejected claims and integrity alerts.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity that may be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID            uuid.UUID         `json:"id"`
	Category      EventCategory     `json:"category"`
	Timestamp     time.Time         `json:"timestamp"`
	Subject       string            `json:"subject"`
	Action        string            `json:"action"`
	EventID       string            `json:"event_id,omitempty"`
	LedgerEventID string            `json:"ledger_event_id,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	RequestID     string            `json:"request_id,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

type AuditEvent string

const (
	EventRegistered          AuditEvent = "event_registered"
	EventBadgeClaimed        AuditEvent = "badge_claimed"
	EventClaimRejected       AuditEvent = "claim_rejected"
	EventClaimPending        AuditEvent = "claim_pending"
	EventClaimSettled        AuditEvent = "claim_settled"
	EventOrphanedLedgerEvent AuditEvent = "orphaned_ledger_event"
	EventUncommittedMint     AuditEvent = "uncommitted_mint"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRegistered:   CategoryCompliance,
	EventBadgeClaimed: CategoryCompliance,
	EventClaimSettled: CategoryCompliance,

	EventClaimRejected:       CategorySecurity,
	EventOrphanedLedgerEvent: CategorySecurity,
	EventUncommittedMint:     CategorySecurity,

	EventClaimPending: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Fanout writes each event to every store and joins their errors.
func Fanout(stores ...Store) Store {
	return fanout(stores)
}

type fanout []Store

func (f fanout) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
