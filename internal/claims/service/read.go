package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"presence/internal/claims/models"
	"presence/internal/identity"
	dErrors "presence/pkg/domain-errors"
	"presence/pkg/platform/sentinel"
)

// ListBadges returns the committed badges held by an identity, oldest first.
// Pending reservations are not badges and are left out.
func (s *Service) ListBadges(ctx context.Context, handle string) ([]models.Badge, error) {
	ctx, span := tracer.Start(ctx, "claims.ListBadges")
	defer span.End()

	owner, err := identity.NormalizeHandle(handle)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid identity")
	}

	records, err := s.claims.ListCommittedByIdentity(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to list claims")
	}

	events := make(map[uuid.UUID]*models.Event, len(records))
	badges := make([]models.Badge, 0, len(records))
	for _, rec := range records {
		event, ok := events[rec.EventID]
		if !ok {
			event, err = s.events.FindByID(ctx, rec.EventID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return nil, dErrors.Wrap(err, dErrors.CodeInternal, "claim references a missing event")
				}
				return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to load event")
			}
			events[rec.EventID] = event
		}
		badges = append(badges, models.Badge{
			EventID:       rec.EventID,
			LedgerEventID: event.LedgerEventID,
			MetadataRef:   event.MetadataRef,
			TxHash:        rec.TxHash,
			ClaimedAt:     rec.ClaimedAt,
		})
	}
	return badges, nil
}

// EventMetadata returns the public view of an event by its ledger id.
func (s *Service) EventMetadata(ctx context.Context, ledgerEventID string) (*models.EventMetadata, error) {
	ctx, span := tracer.Start(ctx, "claims.EventMetadata")
	defer span.End()

	ledgerEventID = strings.TrimSpace(ledgerEventID)
	if ledgerEventID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "ledger event id is required")
	}
	event, err := s.events.FindByLedgerEventID(ctx, ledgerEventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "ledger event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to load event")
	}
	return &models.EventMetadata{
		EventID:           event.ID,
		LedgerEventID:     event.LedgerEventID,
		OrganizerIdentity: event.OrganizerIdentity,
		MetadataRef:       event.MetadataRef,
		Geofence:          event.Geofence,
		CreatedAt:         event.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
