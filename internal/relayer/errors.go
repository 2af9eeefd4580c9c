package relayer

import (
	"errors"
	"fmt"
)

var (
	// ErrPending means the submission outcome was not known within the caller's
	// bounded wait. The transaction may still reach finality.
	ErrPending = errors.New("ledger outcome pending")
	// ErrFinalityTimeout means the relayer stopped watching a broadcast transaction
	// before it was included. The outcome stays unknown.
	ErrFinalityTimeout = fmt.Errorf("%w: finality deadline exceeded", ErrPending)
	// ErrCircuitOpen is wrapped in a SubmissionError while the chain breaker is open.
	ErrCircuitOpen = errors.New("ledger circuit open")
	// ErrClosed is wrapped in a SubmissionError once the relayer stopped accepting work.
	ErrClosed = errors.New("relayer closed")
	// ErrQueueExpired is wrapped in a SubmissionError when a transaction waited in
	// the queue past its finality deadline and was dropped before broadcast.
	ErrQueueExpired = errors.New("relayer queue deadline exceeded")
)

// SubmissionError is a transient failure to hand a transaction to the ledger.
// It is only reported when the transaction certainly never reached the node,
// so the same request may be retried.
type SubmissionError struct {
	Op  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("ledger submission failed (%s): %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// IsTransient is always true; it lets callers test behaviour without the concrete type.
func (e *SubmissionError) IsTransient() bool { return true }

// RejectedError is a permanent refusal by the ledger application.
type RejectedError struct {
	Op        string
	Stage     string
	Code      uint32
	Codespace string
	Log       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("ledger rejected %s at %s: code %s:%d: %s", e.Op, e.Stage, e.Codespace, e.Code, e.Log)
}

// IsSubmission reports a transient submission failure.
func IsSubmission(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}

// IsRejected reports a permanent ledger rejection.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}
