package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"presence/internal/claims/models"
	"presence/internal/identity"
	"presence/internal/relayer"
	dErrors "presence/pkg/domain-errors"
	"presence/pkg/geo"
	audit "presence/pkg/platform/audit"
	"presence/pkg/platform/sentinel"
	"presence/pkg/requestcontext"
)

// Claim runs an attendee's claim through the location, identity and duplicate
// gates, reserves the (event, identity) pair, mints the badge and records it.
//
// A nil error means the claim was accepted: the result status is either
// recorded, or pending when the mint did not reach finality within the claim
// wait. Pending claims settle in the background.
func (s *Service) Claim(ctx context.Context, req *models.ClaimRequest) (*models.ClaimResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "claims.Claim")
	defer span.End()

	result, err := s.claim(ctx, req)

	outcome := outcomeOf(result, err)
	span.SetAttributes(attribute.String("claim.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	s.metrics.ObserveClaim(outcome, start)
	return result, err
}

func (s *Service) claim(ctx context.Context, req *models.ClaimRequest) (*models.ClaimResult, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	event, err := s.events.FindByClaimToken(ctx, req.ClaimToken)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no event for claim token")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to load event")
	}
	attendee := req.AttendeeIdentity

	if err := s.checkLocation(ctx, event, req.Location()); err != nil {
		s.rejected(ctx, event, attendee, err)
		return nil, err
	}
	if err := s.checkIdentity(ctx, event, req); err != nil {
		s.rejected(ctx, event, attendee, err)
		return nil, err
	}
	if err := s.checkDuplicate(ctx, event, attendee); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeStoreUnavailable) {
			s.rejected(ctx, event, attendee, err)
		}
		return nil, err
	}

	held, err := s.reserve(ctx, event, attendee)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeStoreUnavailable) {
			s.rejected(ctx, event, attendee, err)
		}
		return nil, err
	}
	return s.mint(ctx, event, attendee, held.ReservedAt)
}

func (s *Service) checkLocation(ctx context.Context, event *models.Event, at geo.Point) error {
	if !event.HasGeofence() {
		return nil
	}
	_, span := tracer.Start(ctx, "claims.gate.location")
	defer span.End()

	fence := event.Geofence
	inside, distance, err := geo.WithinRadius(fence.Center(), fence.RadiusMeters, at)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid claim location")
	}
	span.SetAttributes(attribute.Float64("geo.distance_meters", distance))
	if !inside {
		return dErrors.New(dErrors.CodeOutOfRange, "claim location is outside the event geofence").
			WithDetail("distance_meters", distance).
			WithDetail("radius_meters", fence.RadiusMeters)
	}
	return nil
}

func (s *Service) checkIdentity(ctx context.Context, event *models.Event, req *models.ClaimRequest) error {
	_, span := tracer.Start(ctx, "claims.gate.identity")
	defer span.End()

	if err := s.verifier.Verify(identity.ClaimMessage(event.ClaimToken), req.Signature, req.AttendeeIdentity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidSignature, "signature was not produced by attendee_identity")
	}
	return nil
}

func (s *Service) checkDuplicate(ctx context.Context, event *models.Event, attendee string) error {
	exists, err := s.claims.Exists(ctx, event.ID, attendee)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to check existing claims")
	}
	if exists {
		return dErrors.New(dErrors.CodeAlreadyClaimed, "identity has already claimed this event")
	}
	return nil
}

// reserve holds the (event, identity) pair. The returned record's ReservedAt
// names this reservation in every later Commit or Release.
func (s *Service) reserve(ctx context.Context, event *models.Event, attendee string) (*models.ClaimRecord, error) {
	held, err := s.claims.Reserve(ctx, event.ID, attendee, requestcontext.Now(ctx), s.reservationTTL)
	switch {
	case err == nil:
		return held, nil
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return nil, dErrors.New(dErrors.CodeAlreadyClaimed, "identity has already claimed this event")
	case errors.Is(err, sentinel.ErrConflict):
		return nil, dErrors.New(dErrors.CodeClaimInProgress, "a claim for this identity is already in progress")
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to reserve claim")
	}
}

// mint relays the badge and waits a bounded time for finality. No store lock
// or transaction is held here; the reservation alone excludes other claims.
func (s *Service) mint(ctx context.Context, event *models.Event, attendee string, reservedAt time.Time) (*models.ClaimResult, error) {
	future, err := s.relayer.MintBadge(ctx, event.LedgerEventID, attendee)
	if err != nil {
		return nil, s.mintFailed(ctx, event, attendee, reservedAt, err)
	}

	receipt, err := future.Await(ctx, s.claimWait)
	switch {
	case errors.Is(err, relayer.ErrPending):
		s.settleLater(ctx, event, attendee, reservedAt, future)
		s.logAudit(ctx, audit.EventClaimPending,
			"identity", attendee,
			"event_id", event.ID,
			"ledger_event_id", event.LedgerEventID,
		)
		return pendingResult(event, ""), nil
	case err != nil:
		return nil, s.mintFailed(ctx, event, attendee, reservedAt, err)
	}

	if err := s.claims.Commit(ctx, event.ID, attendee, reservedAt, receipt.TxHash, requestcontext.Now(ctx)); err != nil {
		s.reportUncommitted(ctx, event, attendee, receipt, err)
		return pendingResult(event, receipt.TxHash), nil
	}

	s.logAudit(ctx, audit.EventBadgeClaimed,
		"identity", attendee,
		"event_id", event.ID,
		"ledger_event_id", event.LedgerEventID,
		"tx_hash", receipt.TxHash,
	)
	return &models.ClaimResult{
		Status:        models.ClaimOutcomeRecorded,
		EventID:       event.ID,
		LedgerEventID: event.LedgerEventID,
		TxHash:        receipt.TxHash,
	}, nil
}

func (s *Service) mintFailed(ctx context.Context, event *models.Event, attendee string, reservedAt time.Time, cause error) error {
	s.release(ctx, event, attendee, reservedAt)
	err := mintError(cause)
	s.rejected(ctx, event, attendee, err)
	return err
}

// settleLater keeps awaiting the mint after the caller has been answered.
// The relayer resolves every future by its finality deadline, so this ends.
func (s *Service) settleLater(ctx context.Context, event *models.Event, attendee string, reservedAt time.Time, future *relayer.Future) {
	// Keep the request id for correlation but drop the request's deadline and clock.
	bg := requestcontext.WithRequestID(context.Background(), requestcontext.RequestID(ctx))

	s.settlements.Add(1)
	go func() {
		defer s.settlements.Done()
		s.settle(bg, event, attendee, reservedAt, future)
	}()
}

func (s *Service) settle(ctx context.Context, event *models.Event, attendee string, reservedAt time.Time, future *relayer.Future) {
	receipt, err := future.Result()
	switch {
	case errors.Is(err, relayer.ErrPending):
		// Left pending; the stale reservation monitor reports it once it expires.
		s.logger.WarnContext(ctx, "mint not final before relayer deadline; reservation kept",
			"alert", "unconfirmed_mint",
			"event_id", event.ID,
			"identity", attendee,
		)
		return
	case err != nil:
		_ = s.mintFailed(ctx, event, attendee, reservedAt, err)
		return
	}

	if err := s.claims.Commit(ctx, event.ID, attendee, reservedAt, receipt.TxHash, time.Now()); err != nil {
		s.reportUncommitted(ctx, event, attendee, receipt, err)
		return
	}
	s.logAudit(ctx, audit.EventClaimSettled,
		"identity", attendee,
		"event_id", event.ID,
		"ledger_event_id", event.LedgerEventID,
		"tx_hash", receipt.TxHash,
	)
}

// release drops the reservation so the attendee can try again. It runs
// detached from ctx cancellation: a disconnected client must not strand it.
func (s *Service) release(ctx context.Context, event *models.Event, attendee string, reservedAt time.Time) {
	ctx = context.WithoutCancel(ctx)
	if err := s.claims.Release(ctx, event.ID, attendee, reservedAt); err != nil {
		s.logger.ErrorContext(ctx, "failed to release claim reservation",
			"event_id", event.ID,
			"identity", attendee,
			"error", err,
		)
	}
}

func (s *Service) reportUncommitted(ctx context.Context, event *models.Event, attendee string, receipt *relayer.Receipt, cause error) {
	s.metrics.IncrementUncommittedMints()
	s.logger.ErrorContext(ctx, "badge minted but claim not committed",
		"alert", "uncommitted_mint",
		"event_id", event.ID,
		"identity", attendee,
		"tx_hash", receipt.TxHash,
		"error", cause,
	)
	s.logAudit(ctx, audit.EventUncommittedMint,
		"identity", attendee,
		"event_id", event.ID,
		"ledger_event_id", event.LedgerEventID,
		"tx_hash", receipt.TxHash,
		"reason", "commit_failed",
	)
}

func (s *Service) rejected(ctx context.Context, event *models.Event, attendee string, err error) {
	s.logAudit(ctx, audit.EventClaimRejected,
		"identity", attendee,
		"event_id", event.ID,
		"ledger_event_id", event.LedgerEventID,
		"reason", string(codeOf(err)),
	)
}

func mintError(err error) error {
	var rejected *relayer.RejectedError
	if errors.As(err, &rejected) {
		return dErrors.Wrap(err, dErrors.CodeMintFailed, "ledger rejected the badge mint").
			WithDetail("stage", rejected.Stage).
			WithDetail("ledger_code", rejected.Code)
	}
	return dErrors.Wrap(err, dErrors.CodeLedgerUnavailable, "ledger unavailable; the claim can be retried")
}

func pendingResult(event *models.Event, txHash string) *models.ClaimResult {
	return &models.ClaimResult{
		Status:        models.ClaimOutcomePending,
		EventID:       event.ID,
		LedgerEventID: event.LedgerEventID,
		TxHash:        txHash,
	}
}

func codeOf(err error) dErrors.Code {
	if de, ok := dErrors.From(err); ok {
		return de.Code
	}
	return dErrors.CodeInternal
}

func outcomeOf(result *models.ClaimResult, err error) string {
	if err != nil {
		return string(codeOf(err))
	}
	return string(result.Status)
}
