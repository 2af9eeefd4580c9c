// Package domainerrors carries typed, transport-agnostic errors from services to the
// HTTP layer. Services return *Error values; handlers translate the Code into a status.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable error identifier exposed to API clients.
type Code string

const (
	CodeValidation        Code = "validation"
	CodeBadRequest        Code = "bad_request"
	CodeNotFound          Code = "not_found"
	CodeOutOfRange        Code = "out_of_range"
	CodeInvalidSignature  Code = "invalid_signature"
	CodeAlreadyClaimed    Code = "already_claimed"
	CodeClaimInProgress   Code = "claim_in_progress"
	CodeMintFailed        Code = "mint_failed"
	CodeLedgerUnavailable Code = "ledger_unavailable"
	CodeLedgerRejected    Code = "ledger_rejected"
	CodeStoreUnavailable  Code = "store_unavailable"
	CodePending           Code = "pending"
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
	CodeInternal          Code = "internal"
)

// Error is a domain error with an optional wrapped cause and structured details
// that are safe to show to the caller.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error without a cause.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a domain code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WithDetail returns the error with an extra caller-visible detail.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// From extracts the outermost domain error in the chain.
func From(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	de, ok := From(err)
	return ok && de.Code == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// IsRetryable reports whether the caller may resubmit the same request unchanged.
// Gate rejections are deterministic and never retryable.
func IsRetryable(err error) bool {
	de, ok := From(err)
	if !ok {
		return false
	}
	switch de.Code {
	case CodeLedgerUnavailable, CodeStoreUnavailable, CodePending:
		return true
	default:
		return false
	}
}
