package models

import (
	"time"

	"github.com/google/uuid"
)

type ClaimStatus string

const (
	// ClaimStatusPending is a reservation: the identity intends to claim and a mint may be in flight.
	ClaimStatusPending ClaimStatus = "pending"
	// ClaimStatusCommitted is a claim whose badge was minted.
	ClaimStatusCommitted ClaimStatus = "committed"
)

// ClaimRecord is the single row per (EventID, AttendeeIdentity).
type ClaimRecord struct {
	EventID          uuid.UUID   `json:"event_id"`
	AttendeeIdentity string      `json:"attendee_identity"`
	Status           ClaimStatus `json:"status"`
	TxHash           string      `json:"tx_hash,omitempty"`
	ReservedAt       time.Time   `json:"reserved_at"`
	ExpiresAt        time.Time   `json:"expires_at"`
	ClaimedAt        time.Time   `json:"claimed_at"`
}

// IsCommitted reports whether the badge was minted and recorded.
func (c *ClaimRecord) IsCommitted() bool {
	return c.Status == ClaimStatusCommitted
}

// IsLiveReservation reports whether the record is a pending reservation that has not expired.
func (c *ClaimRecord) IsLiveReservation(now time.Time) bool {
	return c.Status == ClaimStatusPending && now.Before(c.ExpiresAt)
}

// Badge is a committed claim joined with its event, for read-side listings.
type Badge struct {
	EventID       uuid.UUID `json:"event_id"`
	LedgerEventID string    `json:"ledger_event_id"`
	MetadataRef   string    `json:"metadata_ref"`
	TxHash        string    `json:"tx_hash"`
	ClaimedAt     time.Time `json:"claimed_at"`
}
