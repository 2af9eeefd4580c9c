package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"presence/internal/claims/models"
	"presence/internal/relayer"
	dErrors "presence/pkg/domain-errors"
	audit "presence/pkg/platform/audit"
	"presence/pkg/requestcontext"
)

// RegisterEvent creates the event on the ledger, then stores it locally with a
// fresh claim token. Nothing is stored unless the ledger registration is final.
func (s *Service) RegisterEvent(ctx context.Context, req *models.RegisterEventRequest) (*models.RegisterEventResult, error) {
	start := time.Now()
	defer s.metrics.ObserveRegister(start)

	ctx, span := tracer.Start(ctx, "claims.RegisterEvent")
	defer span.End()

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if sub := requestcontext.Subject(ctx); sub != "" && !strings.EqualFold(sub, req.OrganizerIdentity) {
		return nil, dErrors.New(dErrors.CodeForbidden, "bearer token subject does not match organizer_identity")
	}

	token, err := s.newToken()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate claim token")
	}

	receipt, err := s.relayer.RegisterEventAndWait(ctx, req.MetadataRef, s.registerWait)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger registration failed")
		return nil, registrationError(err)
	}
	span.SetAttributes(
		attribute.String("ledger.event_id", receipt.LedgerEventID),
		attribute.String("ledger.tx_hash", receipt.TxHash),
	)

	event := &models.Event{
		LedgerEventID:     receipt.LedgerEventID,
		OrganizerIdentity: req.OrganizerIdentity,
		MetadataRef:       req.MetadataRef,
		ClaimToken:        token,
		Geofence:          req.Geofence,
		CreatedAt:         requestcontext.Now(ctx),
	}
	if err := s.events.Create(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "orphaned ledger event")
		s.reportOrphan(ctx, req, receipt, err)
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "event registered on ledger but could not be stored")
	}

	s.metrics.IncrementEventsRegistered()
	s.logAudit(ctx, audit.EventRegistered,
		"identity", req.OrganizerIdentity,
		"event_id", event.ID,
		"ledger_event_id", event.LedgerEventID,
		"tx_hash", receipt.TxHash,
		"geofenced", event.HasGeofence(),
	)

	return &models.RegisterEventResult{
		EventID:       event.ID,
		LedgerEventID: event.LedgerEventID,
		ClaimToken:    event.ClaimToken,
	}, nil
}

// reportOrphan raises the alert for a ledger event with no local record.
// Registration is never retried, so this is the only trace of it.
func (s *Service) reportOrphan(ctx context.Context, req *models.RegisterEventRequest, receipt *relayer.Receipt, cause error) {
	s.metrics.IncrementOrphanedLedgerEvents()
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "ledger event registered but not stored",
			"alert", "orphaned_ledger_event",
			"ledger_event_id", receipt.LedgerEventID,
			"tx_hash", receipt.TxHash,
			"organizer_identity", req.OrganizerIdentity,
			"error", cause,
		)
	}
	s.logAudit(ctx, audit.EventOrphanedLedgerEvent,
		"identity", req.OrganizerIdentity,
		"ledger_event_id", receipt.LedgerEventID,
		"tx_hash", receipt.TxHash,
		"reason", "local_store_failed",
	)
}

func registrationError(err error) error {
	var rejected *relayer.RejectedError
	switch {
	case errors.Is(err, relayer.ErrPending):
		return dErrors.Wrap(err, dErrors.CodePending, "event registration not yet final; nothing was stored")
	case errors.As(err, &rejected):
		return dErrors.Wrap(err, dErrors.CodeLedgerRejected, "ledger rejected the registration").
			WithDetail("stage", rejected.Stage).
			WithDetail("ledger_code", rejected.Code)
	default:
		return dErrors.Wrap(err, dErrors.CodeLedgerUnavailable, "ledger unavailable")
	}
}
