package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	audit "presence/pkg/platform/audit"
	"presence/pkg/platform/tx"
)

// Store writes audit events to the audit_events table. Writes join a
// transaction carried in ctx, so an event can commit with the change it records.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	attrs, err := json.Marshal(event.Attributes)
	if err != nil {
		return fmt.Errorf("marshal audit attributes: %w", err)
	}
	if event.Attributes == nil {
		attrs = []byte("{}")
	}
	_, err = tx.Q(ctx, s.pool).Exec(ctx, `
INSERT INTO audit_events (id, category, action, subject, event_id, ledger_event_id, reason, request_id, attributes, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING`,
		event.ID,
		string(audit.AuditEvent(event.Action).Category()),
		event.Action,
		event.Subject,
		event.EventID,
		event.LedgerEventID,
		event.Reason,
		event.RequestID,
		attrs,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns events for one identity, newest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	rows, err := tx.Q(ctx, s.pool).Query(ctx, `
SELECT id, category, action, subject, event_id, ledger_event_id, reason, request_id, attributes, occurred_at
FROM audit_events
WHERE subject = $1
ORDER BY occurred_at DESC`, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	out := make([]audit.Event, 0)
	for rows.Next() {
		var (
			e        audit.Event
			category string
			attrs    []byte
		)
		if err := rows.Scan(&e.ID, &category, &e.Action, &e.Subject, &e.EventID, &e.LedgerEventID, &e.Reason, &e.RequestID, &attrs, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
				return nil, fmt.Errorf("decode audit attributes: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
