package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"presence/internal/claims/models"
	"presence/internal/platform/postgres"
	"presence/pkg/platform/sentinel"
	"presence/pkg/platform/tx"
)

const eventColumns = `id, ledger_event_id, organizer_identity, metadata_ref, claim_token,
	geofence_latitude, geofence_longitude, geofence_radius_m, created_at`

// PostgresStore persists events in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed event store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, e *models.Event) error {
	if e == nil {
		return fmt.Errorf("event is required")
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	var lat, lon, radius *float64
	if e.Geofence != nil {
		lat, lon, radius = &e.Geofence.Latitude, &e.Geofence.Longitude, &e.Geofence.RadiusMeters
	}
	_, err := tx.Q(ctx, s.pool).Exec(ctx, `
INSERT INTO events (`+eventColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.LedgerEventID, e.OrganizerIdentity, e.MetadataRef, e.ClaimToken,
		lat, lon, radius, e.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("create event: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.findOne(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

func (s *PostgresStore) FindByClaimToken(ctx context.Context, token string) (*models.Event, error) {
	return s.findOne(ctx, `SELECT `+eventColumns+` FROM events WHERE claim_token = $1`, token)
}

func (s *PostgresStore) FindByLedgerEventID(ctx context.Context, ledgerEventID string) (*models.Event, error) {
	return s.findOne(ctx, `SELECT `+eventColumns+` FROM events WHERE ledger_event_id = $1`, ledgerEventID)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Event, error) {
	e, err := scanEvent(tx.Q(ctx, s.pool).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return e, nil
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var lat, lon, radius *float64
	if err := row.Scan(&e.ID, &e.LedgerEventID, &e.OrganizerIdentity, &e.MetadataRef, &e.ClaimToken,
		&lat, &lon, &radius, &e.CreatedAt); err != nil {
		return nil, err
	}
	if lat != nil && lon != nil && radius != nil {
		e.Geofence = &models.Geofence{Latitude: *lat, Longitude: *lon, RadiusMeters: *radius}
	}
	return &e, nil
}
