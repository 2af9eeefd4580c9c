package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"presence/internal/claims/metrics"
	"presence/internal/claims/models"
	"presence/internal/claims/service/mocks"
	"presence/internal/relayer"
	"presence/internal/relayer/relayertest"
	dErrors "presence/pkg/domain-errors"
	audit "presence/pkg/platform/audit"
	"presence/pkg/platform/sentinel"
	"presence/pkg/requestcontext"
)

// =============================================================================
// Claims Service Test Suite
// =============================================================================
// Justification for unit tests: store and relayer failures are hard to provoke
// through real backends. These tests pin how each failure is translated into a
// domain error and which alerts and audit events it raises.

const (
	organizer = "0x52908400098527886e0f7030069857d2e4169ee7"
	attendee  = "0x8617e340b3d01fa5f11f306f4090fd50e238070d"
)

type ServiceSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockEvents  *mocks.MockEventStore
	mockClaims  *mocks.MockClaimLedger
	mockRelayer *mocks.MockRelayer
	mockVerify  *mocks.MockVerifier
	mockAudit   *mocks.MockAuditPublisher
	metrics     *metrics.Metrics
	service     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockEvents = mocks.NewMockEventStore(s.ctrl)
	s.mockClaims = mocks.NewMockClaimLedger(s.ctrl)
	s.mockRelayer = mocks.NewMockRelayer(s.ctrl)
	s.mockVerify = mocks.NewMockVerifier(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.mockEvents, s.mockClaims, s.mockRelayer, s.mockVerify, s.options()...)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) options(extra ...Option) []Option {
	return append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAudit),
		WithMetrics(s.metrics),
		WithTokenGenerator(func() (string, error) { return "tok-fixed", nil }),
	}, extra...)
}

func (s *ServiceSuite) expectAudit(action audit.AuditEvent) *gomock.Call {
	return s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Cond(func(e audit.Event) bool {
		return e.Action == string(action)
	})).Return(nil)
}

func registerRequest() *models.RegisterEventRequest {
	return &models.RegisterEventRequest{OrganizerIdentity: organizer, MetadataRef: "ipfs://meta"}
}

// =============================================================================
// Constructor
// =============================================================================

func (s *ServiceSuite) TestNew() {
	s.Run("defaults", func() {
		svc := New(s.mockEvents, s.mockClaims, s.mockRelayer, s.mockVerify)
		s.Equal(DefaultClaimWait, svc.claimWait)
		s.Equal(DefaultReservationTTL, svc.reservationTTL)
		s.NotNil(svc.logger)
	})

	s.Run("options apply and ignore zero values", func() {
		svc := New(s.mockEvents, s.mockClaims, s.mockRelayer, s.mockVerify,
			WithClaimWait(5*time.Second),
			WithReservationTTL(0),
			WithLogger(nil),
		)
		s.Equal(5*time.Second, svc.claimWait)
		s.Equal(DefaultReservationTTL, svc.reservationTTL)
		s.NotNil(svc.logger)
	})
}

// =============================================================================
// Registration failures
// =============================================================================

func (s *ServiceSuite) TestRegisterEventOrphanedWhenStoreFails() {
	receipt := &relayer.Receipt{TxHash: "AB12", Height: 7, LedgerEventID: "evt-9"}
	s.mockRelayer.EXPECT().RegisterEventAndWait(gomock.Any(), "ipfs://meta", DefaultRegisterWait).Return(receipt, nil)
	s.mockEvents.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventOrphanedLedgerEvent), e.Action)
		s.Equal(audit.CategorySecurity, e.Category)
		s.Equal("evt-9", e.LedgerEventID)
		s.Equal(organizer, e.Subject)
		s.Equal("AB12", e.Attributes["tx_hash"])
		return nil
	})

	_, err := s.service.RegisterEvent(context.Background(), registerRequest())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStoreUnavailable))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.OrphanedLedgerEvents))
}

func (s *ServiceSuite) TestRegisterEventRelayerErrors() {
	cases := []struct {
		name string
		err  error
		code dErrors.Code
	}{
		{"pending", relayer.ErrPending, dErrors.CodePending},
		{"finality deadline", relayer.ErrFinalityTimeout, dErrors.CodePending},
		{"rejected", &relayer.RejectedError{Op: relayer.TxRegisterEvent, Stage: "deliver_tx", Code: 4}, dErrors.CodeLedgerRejected},
		{"transport", &relayer.SubmissionError{Op: relayer.TxRegisterEvent, Err: errors.New("eof")}, dErrors.CodeLedgerUnavailable},
		{"circuit open", &relayer.SubmissionError{Op: relayer.TxRegisterEvent, Err: relayer.ErrCircuitOpen}, dErrors.CodeLedgerUnavailable},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.mockRelayer.EXPECT().RegisterEventAndWait(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err)

			_, err := s.service.RegisterEvent(context.Background(), registerRequest())
			s.True(dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func (s *ServiceSuite) TestRegisterEventSubjectMustMatchOrganizer() {
	ctx := requestcontext.WithSubject(context.Background(), attendee)

	_, err := s.service.RegisterEvent(ctx, registerRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestRegisterEventSubjectMatchIsCaseInsensitive() {
	ctx := requestcontext.WithSubject(context.Background(), "0x52908400098527886E0F7030069857D2E4169EE7")
	s.mockRelayer.EXPECT().RegisterEventAndWait(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&relayer.Receipt{TxHash: "AA", LedgerEventID: "evt-1"}, nil)
	s.mockEvents.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *models.Event) error {
		s.Equal("tok-fixed", e.ClaimToken)
		s.Equal(organizer, e.OrganizerIdentity)
		e.ID = uuid.New()
		return nil
	})
	s.expectAudit(audit.EventRegistered)

	res, err := s.service.RegisterEvent(ctx, registerRequest())
	s.Require().NoError(err)
	s.Equal("tok-fixed", res.ClaimToken)
	s.Equal("evt-1", res.LedgerEventID)
}

func (s *ServiceSuite) TestRegisterEventTokenFailureNeverReachesLedger() {
	svc := New(s.mockEvents, s.mockClaims, s.mockRelayer, s.mockVerify,
		s.options(WithTokenGenerator(func() (string, error) { return "", errors.New("entropy exhausted") }))...)

	_, err := svc.RegisterEvent(context.Background(), registerRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

// =============================================================================
// Claim failures
// =============================================================================

func (s *ServiceSuite) claimRequest() *models.ClaimRequest {
	return &models.ClaimRequest{ClaimToken: "tok", AttendeeIdentity: attendee, Signature: "0xsig"}
}

func (s *ServiceSuite) TestClaimEventLookupFailure() {
	s.mockEvents.EXPECT().FindByClaimToken(gomock.Any(), "tok").Return(nil, sentinel.ErrUnavailable)

	_, err := s.service.Claim(context.Background(), s.claimRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeStoreUnavailable))
	s.True(dErrors.IsRetryable(err))
}

func (s *ServiceSuite) TestClaimReservationOutcomes() {
	event := &models.Event{ID: uuid.New(), LedgerEventID: "evt-1", ClaimToken: "tok"}
	cases := []struct {
		name  string
		err   error
		code  dErrors.Code
		audit bool
	}{
		{"committed elsewhere", sentinel.ErrAlreadyUsed, dErrors.CodeAlreadyClaimed, true},
		{"live reservation", sentinel.ErrConflict, dErrors.CodeClaimInProgress, true},
		{"store down", errors.New("timeout"), dErrors.CodeStoreUnavailable, false},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.mockEvents.EXPECT().FindByClaimToken(gomock.Any(), "tok").Return(event, nil)
			s.mockVerify.EXPECT().Verify(gomock.Any(), "0xsig", attendee).Return(nil)
			s.mockClaims.EXPECT().Exists(gomock.Any(), event.ID, attendee).Return(false, nil)
			s.mockClaims.EXPECT().Reserve(gomock.Any(), event.ID, attendee, gomock.Any(), DefaultReservationTTL).Return(nil, tc.err)
			if tc.audit {
				s.expectAudit(audit.EventClaimRejected)
			}

			_, err := s.service.Claim(context.Background(), s.claimRequest())
			s.True(dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func (s *ServiceSuite) TestClaimSignatureFailureStopsBeforeLedger() {
	event := &models.Event{ID: uuid.New(), LedgerEventID: "evt-1", ClaimToken: "tok"}
	s.mockEvents.EXPECT().FindByClaimToken(gomock.Any(), "tok").Return(event, nil)
	s.mockVerify.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("invalid signature"))
	s.expectAudit(audit.EventClaimRejected)

	_, err := s.service.Claim(context.Background(), s.claimRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidSignature))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.ClaimOutcomes.WithLabelValues(string(dErrors.CodeInvalidSignature))))
}

func (s *ServiceSuite) TestClaimCommitFailureAnswersPending() {
	chain := relayertest.NewChain()
	svc := New(s.mockEvents, s.mockClaims, relayertest.Start(s.T(), chain), s.mockVerify, s.options()...)

	event := &models.Event{ID: uuid.New(), LedgerEventID: "evt-1", ClaimToken: "tok"}
	s.mockEvents.EXPECT().FindByClaimToken(gomock.Any(), "tok").Return(event, nil)
	s.mockVerify.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.mockClaims.EXPECT().Exists(gomock.Any(), event.ID, attendee).Return(false, nil)
	reservedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.mockClaims.EXPECT().Reserve(gomock.Any(), event.ID, attendee, gomock.Any(), gomock.Any()).
		Return(&models.ClaimRecord{ReservedAt: reservedAt}, nil)
	s.mockClaims.EXPECT().Commit(gomock.Any(), event.ID, attendee, reservedAt, gomock.Any(), gomock.Any()).
		Return(errors.New("deadlock detected"))
	s.expectAudit(audit.EventUncommittedMint)

	res, err := svc.Claim(context.Background(), s.claimRequest())
	s.Require().NoError(err)
	s.Equal(models.ClaimOutcomePending, res.Status)
	s.NotEmpty(res.TxHash, "the minted transaction is reported for reconciliation")
	s.Equal(1.0, promtest.ToFloat64(s.metrics.UncommittedMints))
}

func (s *ServiceSuite) TestClaimReleaseSurvivesCallerCancellation() {
	chain := relayertest.NewChain()
	chain.RejectAtCheck(3)
	svc := New(s.mockEvents, s.mockClaims, relayertest.Start(s.T(), chain), s.mockVerify, s.options()...)

	event := &models.Event{ID: uuid.New(), LedgerEventID: "evt-1", ClaimToken: "tok"}
	s.mockEvents.EXPECT().FindByClaimToken(gomock.Any(), "tok").Return(event, nil)
	s.mockVerify.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.mockClaims.EXPECT().Exists(gomock.Any(), event.ID, attendee).Return(false, nil)
	reservedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.mockClaims.EXPECT().Reserve(gomock.Any(), event.ID, attendee, gomock.Any(), gomock.Any()).
		Return(&models.ClaimRecord{ReservedAt: reservedAt}, nil)
	s.mockClaims.EXPECT().Release(gomock.Any(), event.ID, attendee, reservedAt).
		DoAndReturn(func(ctx context.Context, _ uuid.UUID, _ string, _ time.Time) error {
			s.NoError(ctx.Err(), "release must not inherit the caller's cancellation")
			return nil
		})
	s.expectAudit(audit.EventClaimRejected)

	_, err := svc.Claim(context.Background(), s.claimRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeMintFailed))
}

// =============================================================================
// Read failures
// =============================================================================

func (s *ServiceSuite) TestListBadgesStoreFailure() {
	s.mockClaims.EXPECT().ListCommittedByIdentity(gomock.Any(), attendee).Return(nil, errors.New("pool closed"))

	_, err := s.service.ListBadges(context.Background(), attendee)
	s.True(dErrors.HasCode(err, dErrors.CodeStoreUnavailable))
}

func (s *ServiceSuite) TestListBadgesLoadsEachEventOnce() {
	eventID := uuid.New()
	now := time.Now()
	s.mockClaims.EXPECT().ListCommittedByIdentity(gomock.Any(), attendee).Return([]*models.ClaimRecord{
		{EventID: eventID, AttendeeIdentity: attendee, Status: models.ClaimStatusCommitted, TxHash: "A", ClaimedAt: now},
		{EventID: eventID, AttendeeIdentity: attendee, Status: models.ClaimStatusCommitted, TxHash: "B", ClaimedAt: now},
	}, nil)
	s.mockEvents.EXPECT().FindByID(gomock.Any(), eventID).Times(1).
		Return(&models.Event{ID: eventID, LedgerEventID: "evt-3", MetadataRef: "ipfs://m"}, nil)

	badges, err := s.service.ListBadges(context.Background(), attendee)
	s.Require().NoError(err)
	s.Len(badges, 2)
	s.Equal("evt-3", badges[1].LedgerEventID)
}
