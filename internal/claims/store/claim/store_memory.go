package claim

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"presence/internal/claims/models"
	"presence/pkg/platform/sentinel"
	"presence/pkg/requestcontext"
)

// Error Contract:
//   - ErrAlreadyUsed when the identity already holds a committed claim for the event
//   - ErrConflict when a live reservation or committed record blocks an insert
//   - ErrNotFound when Commit finds no reservation
//   - ErrInvalidState when Commit or Release hits a record in the wrong state, or
//     when Commit finds the reservation was taken over by a later Reserve
//
// Commit and Release name the reservation by its ReservedAt, so a settlement
// that outlived its reservation cannot touch the row that replaced it.

type claimKey struct {
	eventID  uuid.UUID
	identity string
}

// InMemory keeps claim records in memory for tests/dev. The map key is the
// (event, identity) pair, so uniqueness holds under the write lock.
type InMemory struct {
	mu      sync.RWMutex
	records map[claimKey]*models.ClaimRecord
}

// NewInMemory constructs an empty in-memory claim ledger.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[claimKey]*models.ClaimRecord)}
}

// Exists reports a committed claim or a live reservation.
func (s *InMemory) Exists(ctx context.Context, eventID uuid.UUID, identity string) (bool, error) {
	now := requestcontext.Now(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[claimKey{eventID, identity}]
	if !ok {
		return false, nil
	}
	return r.IsCommitted() || r.IsLiveReservation(now), nil
}

// Record inserts a committed claim directly.
func (s *InMemory) Record(ctx context.Context, eventID uuid.UUID, identity, txHash string) error {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := claimKey{eventID, identity}
	if r, ok := s.records[key]; ok && (r.IsCommitted() || r.IsLiveReservation(now)) {
		return fmt.Errorf("claim for %s: %w", identity, sentinel.ErrConflict)
	}
	s.records[key] = &models.ClaimRecord{
		EventID:          eventID,
		AttendeeIdentity: identity,
		Status:           models.ClaimStatusCommitted,
		TxHash:           txHash,
		ReservedAt:       now,
		ExpiresAt:        now,
		ClaimedAt:        now,
	}
	return nil
}

// Reserve inserts a pending reservation, taking over an expired one.
func (s *InMemory) Reserve(_ context.Context, eventID uuid.UUID, identity string, now time.Time, ttl time.Duration) (*models.ClaimRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := claimKey{eventID, identity}
	if r, ok := s.records[key]; ok {
		if r.IsCommitted() {
			return nil, fmt.Errorf("claim for %s: %w", identity, sentinel.ErrAlreadyUsed)
		}
		if r.IsLiveReservation(now) {
			return nil, fmt.Errorf("reservation for %s: %w", identity, sentinel.ErrConflict)
		}
	}
	r := &models.ClaimRecord{
		EventID:          eventID,
		AttendeeIdentity: identity,
		Status:           models.ClaimStatusPending,
		ReservedAt:       now,
		ExpiresAt:        now.Add(ttl),
	}
	s.records[key] = r
	c := *r
	return &c, nil
}

// Commit moves the reservation taken at reservedAt to committed. Committing
// again with the same transaction hash is a no-op.
func (s *InMemory) Commit(_ context.Context, eventID uuid.UUID, identity string, reservedAt time.Time, txHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[claimKey{eventID, identity}]
	if !ok {
		return fmt.Errorf("reservation for %s: %w", identity, sentinel.ErrNotFound)
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
	r.Status = models.ClaimStatusCommitted
	r.TxHash = txHash
	r.ClaimedAt = now
	return nil
}

// Release deletes the pending reservation taken at reservedAt. Missing or
// taken-over reservations are ignored.
func (s *InMemory) Release(_ context.Context, eventID uuid.UUID, identity string, reservedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := claimKey{eventID, identity}
	r, ok := s.records[key]
	if !ok {
		return nil
	}
	if r.IsCommitted() {
		return fmt.Errorf("claim for %s is committed: %w", identity, sentinel.ErrInvalidState)
	}
	if !r.ReservedAt.Equal(reservedAt) {
		return nil
	}
	delete(s.records, key)
	return nil
}

// Find returns the record for the pair, in any state.
func (s *InMemory) Find(_ context.Context, eventID uuid.UUID, identity string) (*models.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[claimKey{eventID, identity}]
	if !ok {
		return nil, fmt.Errorf("claim for %s: %w", identity, sentinel.ErrNotFound)
	}
	c := *r
	return &c, nil
}

// ListCommittedByIdentity returns committed claims ordered by claim time.
func (s *InMemory) ListCommittedByIdentity(_ context.Context, identity string) ([]*models.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ClaimRecord, 0)
	for key, r := range s.records {
		if key.identity == identity && r.IsCommitted() {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimedAt.Before(out[j].ClaimedAt) })
	return out, nil
}

// CountStalePending counts pending reservations whose expiry has passed.
func (s *InMemory) CountStalePending(_ context.Context, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.records {
		if r.Status == models.ClaimStatusPending && !now.Before(r.ExpiresAt) {
			n++
		}
	}
	return n, nil
}
