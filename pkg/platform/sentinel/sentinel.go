package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Event and claim stores return these
// (optionally wrapped) and the claims service translates them into domain errors.
//
//   - ErrNotFound: no event for the token / ledger id, or no claim record
//   - ErrConflict: a uniqueness constraint was hit (duplicate token, live reservation)
//   - ErrAlreadyUsed: the identity already holds a committed claim for the event
//   - ErrInvalidState: the record is not in the state the operation requires
//   - ErrUnavailable: backing store or cache could not be reached
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
