package relayer

import (
	"context"
	"sync"
	"time"
)

// Receipt is proof that a transaction reached finality.
type Receipt struct {
	TxHash        string
	Height        int64
	LedgerEventID string
}

// Future resolves once a submitted transaction is final, rejected, or abandoned.
type Future struct {
	done    chan struct{}
	once    sync.Once
	receipt *Receipt
	err     error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(r *Receipt, err error) {
	f.once.Do(func() {
		f.receipt, f.err = r, err
		close(f.done)
	})
}

// Done is closed when the outcome is known.
func (f *Future) Done() <-chan struct{} { return f.done }

// Result returns the outcome. It blocks until Done is closed.
func (f *Future) Result() (*Receipt, error) {
	<-f.done
	return f.receipt, f.err
}

// Await waits at most maxWait for the outcome. When the wait or ctx ends first it
// returns ErrPending; the future keeps resolving in the background.
// A non-positive maxWait waits on ctx alone.
func (f *Future) Await(ctx context.Context, maxWait time.Duration) (*Receipt, error) {
	select {
	case <-f.done:
		return f.receipt, f.err
	default:
	}

	var expired <-chan time.Time
	if maxWait > 0 {
		timer := time.NewTimer(maxWait)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case <-f.done:
		return f.receipt, f.err
	case <-expired:
		return nil, ErrPending
	case <-ctx.Done():
		return nil, ErrPending
	}
}
