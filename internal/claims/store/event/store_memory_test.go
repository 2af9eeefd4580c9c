package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"presence/internal/claims/models"
	"presence/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func newTestEvent(ledgerID, token string) *models.Event {
	return &models.Event{
		LedgerEventID:     ledgerID,
		OrganizerIdentity: "0x00000000000000000000000000000000000000aa",
		MetadataRef:       "ipfs://meta/" + ledgerID,
		ClaimToken:        token,
		Geofence:          &models.Geofence{Latitude: 48.8584, Longitude: 2.2945, RadiusMeters: 200},
		CreatedAt:         time.Now().UTC(),
	}
}

func (s *InMemoryStoreSuite) TestCreateAndLookups() {
	e := newTestEvent("ledger-1", "token-1")
	s.Require().NoError(s.store.Create(s.ctx, e))
	s.NotEqual(uuid.Nil, e.ID, "create assigns an id")

	s.Run("by claim token", func() {
		found, err := s.store.FindByClaimToken(s.ctx, "token-1")
		s.Require().NoError(err)
		s.Equal(e.ID, found.ID)
		s.Equal(e.Geofence, found.Geofence)
	})

	s.Run("by ledger event id", func() {
		found, err := s.store.FindByLedgerEventID(s.ctx, "ledger-1")
		s.Require().NoError(err)
		s.Equal("token-1", found.ClaimToken)
	})

	s.Run("by id", func() {
		found, err := s.store.FindByID(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(e.MetadataRef, found.MetadataRef)
	})

	s.Run("unknown keys are not found", func() {
		_, err := s.store.FindByClaimToken(s.ctx, "nope")
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByLedgerEventID(s.ctx, "nope")
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByID(s.ctx, uuid.New())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestUniqueness() {
	s.Require().NoError(s.store.Create(s.ctx, newTestEvent("ledger-1", "token-1")))

	s.Run("duplicate claim token", func() {
		err := s.store.Create(s.ctx, newTestEvent("ledger-2", "token-1"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("duplicate ledger event id", func() {
		err := s.store.Create(s.ctx, newTestEvent("ledger-1", "token-2"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("failed create leaves no partial index entries", func() {
		_, err := s.store.FindByClaimToken(s.ctx, "token-2")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestReturnedEventsAreCopies() {
	e := newTestEvent("ledger-1", "token-1")
	s.Require().NoError(s.store.Create(s.ctx, e))

	found, err := s.store.FindByClaimToken(s.ctx, "token-1")
	s.Require().NoError(err)
	found.Geofence.RadiusMeters = 1
	e.MetadataRef = "mutated"

	again, err := s.store.FindByClaimToken(s.ctx, "token-1")
	s.Require().NoError(err)
	s.Equal(200.0, again.Geofence.RadiusMeters)
	s.Equal("ipfs://meta/ledger-1", again.MetadataRef)
}
