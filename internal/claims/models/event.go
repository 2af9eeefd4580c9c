package models

import (
	"time"

	"github.com/google/uuid"

	"presence/pkg/geo"
)

// Geofence is the circular region a claim must originate from.
type Geofence struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

// Center returns the geofence center as a geo point.
func (g Geofence) Center() geo.Point {
	return geo.Point{Latitude: g.Latitude, Longitude: g.Longitude}
}

// Event is a registered proof-of-presence event.
//
// Invariants:
//   - ClaimToken is globally unique and never changes
//   - LedgerEventID is assigned by the ledger before the event is stored and never changes
//   - a nil Geofence disables the proximity gate for the event
type Event struct {
	ID                uuid.UUID `json:"id"`
	LedgerEventID     string    `json:"ledger_event_id"`
	OrganizerIdentity string    `json:"organizer_identity"`
	MetadataRef       string    `json:"metadata_ref"`
	ClaimToken        string    `json:"claim_token"`
	Geofence          *Geofence `json:"geofence,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// HasGeofence reports whether claims must pass the location gate.
func (e *Event) HasGeofence() bool {
	return e.Geofence != nil
}
