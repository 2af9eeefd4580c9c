package claim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"presence/internal/claims/models"
	"presence/pkg/platform/sentinel"
	"presence/pkg/platform/tx"
	"presence/pkg/requestcontext"
)

const claimColumns = `event_id, attendee_identity, status, tx_hash, reserved_at, expires_at, claimed_at`

// PostgresStore persists claim records in PostgreSQL. The (event_id,
// attendee_identity) primary key is the exclusion point for concurrent claims.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed claim ledger.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Exists(ctx context.Context, eventID uuid.UUID, identity string) (bool, error) {
	var exists bool
	err := tx.Q(ctx, s.pool).QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM claims
	WHERE event_id = $1 AND attendee_identity = $2
	  AND (status = 'committed' OR expires_at > $3)
)`, eventID, identity, requestcontext.Now(ctx)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check claim: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Record(ctx context.Context, eventID uuid.UUID, identity, txHash string) error {
	now := requestcontext.Now(ctx)
	tag, err := tx.Q(ctx, s.pool).Exec(ctx, `
INSERT INTO claims (`+claimColumns+`)
VALUES ($1, $2, 'committed', $3, $4, $4, $4)
ON CONFLICT (event_id, attendee_identity) DO UPDATE
	SET status = 'committed', tx_hash = EXCLUDED.tx_hash,
	    reserved_at = EXCLUDED.reserved_at, expires_at = EXCLUDED.expires_at, claimed_at = EXCLUDED.claimed_at
	WHERE claims.status = 'pending' AND claims.expires_at <= EXCLUDED.reserved_at`,
		eventID, identity, txHash, now)
	if err != nil {
		return fmt.Errorf("record claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("claim for %s: %w", identity, sentinel.ErrConflict)
	}
	return nil
}

// Reserve inserts a pending reservation. An expired pending row is taken over
// in the same statement, so two callers can never both hold it.
func (s *PostgresStore) Reserve(ctx context.Context, eventID uuid.UUID, identity string, now time.Time, ttl time.Duration) (*models.ClaimRecord, error) {
	row := tx.Q(ctx, s.pool).QueryRow(ctx, `
INSERT INTO claims (event_id, attendee_identity, status, tx_hash, reserved_at, expires_at)
VALUES ($1, $2, 'pending', '', $3, $4)
ON CONFLICT (event_id, attendee_identity) DO UPDATE
	SET reserved_at = EXCLUDED.reserved_at, expires_at = EXCLUDED.expires_at, tx_hash = ''
	WHERE claims.status = 'pending' AND claims.expires_at <= EXCLUDED.reserved_at
RETURNING `+claimColumns, eventID, identity, now, now.Add(ttl))

	r, err := scanClaim(row)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reserve claim: %w", err)
	}

	existing, findErr := s.Find(ctx, eventID, identity)
	if findErr == nil && existing.IsCommitted() {
		return nil, fmt.Errorf("claim for %s: %w", identity, sentinel.ErrAlreadyUsed)
	}
	return nil, fmt.Errorf("reservation for %s: %w", identity, sentinel.ErrConflict)
}

// Commit moves the reservation taken at reservedAt to committed. reservedAt
// must be the value Reserve returned, which carries the column's precision.
func (s *PostgresStore) Commit(ctx context.Context, eventID uuid.UUID, identity string, reservedAt time.Time, txHash string, now time.Time) error {
	return tx.Run(ctx, s.pool, func(ctx context.Context) error {
		r, err := scanClaim(tx.Q(ctx, s.pool).QueryRow(ctx,
			`SELECT `+claimColumns+` FROM claims WHERE event_id = $1 AND attendee_identity = $2 FOR UPDATE`,
			eventID, identity))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("reservation for %s: %w", identity, sentinel.ErrNotFound)
			}
			return fmt.Errorf("lock claim: %w", err)
		}
		if r.IsCommitted() {
			if r.TxHash == txHash {
				return nil
			}
			return fmt.Errorf("claim for %s already committed: %w", identity, sentinel.ErrInvalidState)
		}
		if !r.ReservedAt.Equal(reservedAt) {
			return fmt.Errorf("reservation for %s was taken over: %w", identity, sentinel.ErrInvalidState)
		}
		if _, err := tx.Q(ctx, s.pool).Exec(ctx, `
UPDATE claims SET status = 'committed', tx_hash = $3, claimed_at = $4
WHERE event_id = $1 AND attendee_identity = $2`, eventID, identity, txHash, now); err != nil {
			return fmt.Errorf("commit claim: %w", err)
		}
		return nil
	})
}

// Release deletes the pending reservation taken at reservedAt. A row taken
// over by a later Reserve is left alone.
func (s *PostgresStore) Release(ctx context.Context, eventID uuid.UUID, identity string, reservedAt time.Time) error {
	tag, err := tx.Q(ctx, s.pool).Exec(ctx, `
DELETE FROM claims
WHERE event_id = $1 AND attendee_identity = $2 AND status = 'pending' AND reserved_at = $3`,
		eventID, identity, reservedAt)
	if err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if r, err := s.Find(ctx, eventID, identity); err == nil && r.IsCommitted() {
			return fmt.Errorf("claim for %s is committed: %w", identity, sentinel.ErrInvalidState)
		}
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, eventID uuid.UUID, identity string) (*models.ClaimRecord, error) {
	r, err := scanClaim(tx.Q(ctx, s.pool).QueryRow(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE event_id = $1 AND attendee_identity = $2`,
		eventID, identity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("claim for %s: %w", identity, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find claim: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListCommittedByIdentity(ctx context.Context, identity string) ([]*models.ClaimRecord, error) {
	rows, err := tx.Q(ctx, s.pool).Query(ctx, `
SELECT `+claimColumns+` FROM claims
WHERE attendee_identity = $1 AND status = 'committed'
ORDER BY claimed_at`, identity)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ClaimRecord, 0)
	for rows.Next() {
		r, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountStalePending(ctx context.Context, now time.Time) (int, error) {
	var n int
	if err := tx.Q(ctx, s.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM claims WHERE status = 'pending' AND expires_at <= $1`, now).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stale reservations: %w", err)
	}
	return n, nil
}

func scanClaim(row pgx.Row) (*models.ClaimRecord, error) {
	var (
		r         models.ClaimRecord
		status    string
		claimedAt *time.Time
	)
	if err := row.Scan(&r.EventID, &r.AttendeeIdentity, &status, &r.TxHash, &r.ReservedAt, &r.ExpiresAt, &claimedAt); err != nil {
		return nil, err
	}
	r.Status = models.ClaimStatus(status)
	if claimedAt != nil {
		r.ClaimedAt = *claimedAt
	}
	return &r, nil
}
