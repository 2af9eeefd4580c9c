package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"presence/internal/identity"
	dErrors "presence/pkg/domain-errors"
	"presence/pkg/geo"
)

const maxMetadataRefLen = 2048

// RegisterEventRequest is the organizer's input for creating an event.
type RegisterEventRequest struct {
	OrganizerIdentity string    `json:"organizer_identity"`
	MetadataRef       string    `json:"metadata_ref"`
	Geofence          *Geofence `json:"geofence,omitempty"`
}

// Normalize trims input and lowercases the organizer handle when it is well formed.
func (r *RegisterEventRequest) Normalize() {
	r.OrganizerIdentity = strings.TrimSpace(r.OrganizerIdentity)
	if h, err := identity.NormalizeHandle(r.OrganizerIdentity); err == nil {
		r.OrganizerIdentity = h
	}
	r.MetadataRef = strings.TrimSpace(r.MetadataRef)
}

// Validate checks request shape. It has no side effects.
func (r *RegisterEventRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if _, err := identity.NormalizeHandle(r.OrganizerIdentity); err != nil {
		return dErrors.New(dErrors.CodeValidation, "organizer_identity must be a 0x-prefixed 40 character hex handle")
	}
	if r.MetadataRef == "" {
		return dErrors.New(dErrors.CodeValidation, "metadata_ref is required")
	}
	if len(r.MetadataRef) > maxMetadataRefLen {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("metadata_ref must be at most %d characters", maxMetadataRefLen))
	}
	if r.Geofence != nil {
		if err := r.Geofence.Center().Validate(); err != nil {
			return dErrors.New(dErrors.CodeValidation, "geofence: "+err.Error())
		}
		if !(r.Geofence.RadiusMeters > 0) {
			return dErrors.New(dErrors.CodeValidation, "geofence.radius_meters must be greater than zero")
		}
	}
	return nil
}

// RegisterEventResult is returned once the event exists on the ledger and in the store.
type RegisterEventResult struct {
	EventID       uuid.UUID `json:"event_id"`
	LedgerEventID string    `json:"ledger_event_id"`
	ClaimToken    string    `json:"claim_token"`
}

// ClaimRequest is an attendee's claim attempt. It is never persisted.
type ClaimRequest struct {
	ClaimToken       string  `json:"claim_token"`
	AttendeeIdentity string  `json:"attendee_identity"`
	Signature        string  `json:"signature"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// Normalize trims input and lowercases the attendee handle when it is well formed.
func (r *ClaimRequest) Normalize() {
	r.ClaimToken = strings.TrimSpace(r.ClaimToken)
	r.AttendeeIdentity = strings.TrimSpace(r.AttendeeIdentity)
	if h, err := identity.NormalizeHandle(r.AttendeeIdentity); err == nil {
		r.AttendeeIdentity = h
	}
	r.Signature = strings.TrimSpace(r.Signature)
}

// Validate checks request shape. Signature validity is a separate gate.
func (r *ClaimRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	var errs []error
	if r.ClaimToken == "" {
		errs = append(errs, errors.New("claim_token is required"))
	}
	if _, err := identity.NormalizeHandle(r.AttendeeIdentity); err != nil {
		errs = append(errs, errors.New("attendee_identity must be a 0x-prefixed 40 character hex handle"))
	}
	if r.Signature == "" {
		errs = append(errs, errors.New("signature is required"))
	}
	if err := r.Location().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return dErrors.Wrap(errors.Join(errs...), dErrors.CodeValidation, "invalid claim request")
	}
	return nil
}

// Location is where the attendee says they are.
func (r *ClaimRequest) Location() geo.Point {
	return geo.Point{Latitude: r.Latitude, Longitude: r.Longitude}
}

// ClaimOutcome is the terminal non-error state of a claim.
type ClaimOutcome string

const (
	ClaimOutcomeRecorded ClaimOutcome = "recorded"
	ClaimOutcomePending  ClaimOutcome = "pending"
)

// ClaimResult describes a claim that was recorded, or accepted but not yet confirmed.
type ClaimResult struct {
	Status        ClaimOutcome `json:"status"`
	EventID       uuid.UUID    `json:"event_id"`
	LedgerEventID string       `json:"ledger_event_id"`
	TxHash        string       `json:"tx_hash,omitempty"`
}

// EventMetadata is the public read model for a ledger event. It never includes the claim token.
type EventMetadata struct {
	EventID           uuid.UUID `json:"event_id"`
	LedgerEventID     string    `json:"ledger_event_id"`
	OrganizerIdentity string    `json:"organizer_identity"`
	MetadataRef       string    `json:"metadata_ref"`
	Geofence          *Geofence `json:"geofence,omitempty"`
	CreatedAt         string    `json:"created_at"`
}
