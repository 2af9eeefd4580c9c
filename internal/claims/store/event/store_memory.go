package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"presence/internal/claims/models"
	"presence/pkg/platform/sentinel"
)

// Error Contract:
//   - ErrNotFound when no event matches the lookup key
//   - ErrConflict when the claim token or ledger event id is already taken

// InMemory stores events in memory for tests/dev.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*models.Event
	byToken  map[string]uuid.UUID
	byLedger map[string]uuid.UUID
}

// NewInMemory constructs an empty in-memory event store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[uuid.UUID]*models.Event),
		byToken:  make(map[string]uuid.UUID),
		byLedger: make(map[string]uuid.UUID),
	}
}

// Create stores the event, assigning an ID when it has none.
func (s *InMemory) Create(_ context.Context, e *models.Event) error {
	if e == nil {
		return fmt.Errorf("event is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if _, ok := s.byID[e.ID]; ok {
		return fmt.Errorf("event id %s: %w", e.ID, sentinel.ErrConflict)
	}
	if _, ok := s.byToken[e.ClaimToken]; ok {
		return fmt.Errorf("claim token: %w", sentinel.ErrConflict)
	}
	if _, ok := s.byLedger[e.LedgerEventID]; ok {
		return fmt.Errorf("ledger event %s: %w", e.LedgerEventID, sentinel.ErrConflict)
	}

	stored := cloneEvent(e)
	s.byID[e.ID] = stored
	s.byToken[e.ClaimToken] = e.ID
	s.byLedger[e.LedgerEventID] = e.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.byID[id]; ok {
		return cloneEvent(e), nil
	}
	return nil, fmt.Errorf("event not found: %w", sentinel.ErrNotFound)
}

func (s *InMemory) FindByClaimToken(_ context.Context, token string) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byToken[token]; ok {
		return cloneEvent(s.byID[id]), nil
	}
	return nil, fmt.Errorf("event not found for claim token: %w", sentinel.ErrNotFound)
}

func (s *InMemory) FindByLedgerEventID(_ context.Context, ledgerEventID string) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byLedger[ledgerEventID]; ok {
		return cloneEvent(s.byID[id]), nil
	}
	return nil, fmt.Errorf("event not found for ledger event %s: %w", ledgerEventID, sentinel.ErrNotFound)
}

// cloneEvent keeps callers from mutating stored state through returned pointers.
func cloneEvent(e *models.Event) *models.Event {
	c := *e
	if e.Geofence != nil {
		g := *e.Geofence
		c.Geofence = &g
	}
	return &c
}
