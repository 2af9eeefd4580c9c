package relayer_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence/internal/relayer"
	"presence/internal/relayer/relayertest"
	"presence/pkg/platform/circuit"
)

const attendee = "0x00000000000000000000000000000000000000a1"

func newSigner(t *testing.T) *relayer.Signer {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	s, err := relayer.NewSigner("presence-relayer", key)
	require.NoError(t, err)
	return s
}

func run(t *testing.T, r *relayer.Relayer) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestRegisterAndMint(t *testing.T) {
	chain := relayertest.NewChain()
	r := relayertest.Start(t, chain)
	ctx := context.Background()

	reg, err := r.RegisterEventAndWait(ctx, "ipfs://meta", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", reg.LedgerEventID)
	assert.NotEmpty(t, reg.TxHash)
	assert.Positive(t, reg.Height)

	mint, err := r.MintBadgeAndWait(ctx, reg.LedgerEventID, attendee, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", mint.LedgerEventID)
	assert.NotEqual(t, reg.TxHash, mint.TxHash)
	assert.Equal(t, uint64(2), r.Sequence())
}

// TestSubmissionsAreSerializedAndSigned verifies concurrent callers get one
// gap-free sequence under the service identity.
func TestSubmissionsAreSerializedAndSigned(t *testing.T) {
	chain := relayertest.NewChain()
	signer := newSigner(t)
	r := relayer.New(chain, signer, relayer.WithPollInterval(5*time.Millisecond))
	run(t, r)

	const n = 25
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.MintBadgeAndWait(context.Background(), "evt-1", attendee, 2*time.Second)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	envs := chain.Envelopes()
	require.Len(t, envs, n)
	for i, env := range envs {
		assert.Equal(t, uint64(i+1), env.Sequence)
		assert.Equal(t, "presence-relayer", env.Principal)
		assert.Equal(t, relayer.AppName, env.App)
		ok, err := env.Verify(signer.PublicKey())
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestTransportFailureIsTransient(t *testing.T) {
	chain := relayertest.NewChain()
	chain.FailBroadcasts(errors.New("connection refused"))
	r := relayertest.Start(t, chain)

	_, err := r.MintBadgeAndWait(context.Background(), "evt-1", attendee, time.Second)
	require.Error(t, err)
	var se *relayer.SubmissionError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.IsTransient())
	assert.False(t, relayer.IsRejected(err))
	assert.Zero(t, r.Sequence(), "failed broadcasts do not consume a sequence number")
}

// TestLostBroadcastResponseIsWatched covers a node that admits the transaction
// but whose response never arrives: the sequence is spent and the outcome is
// found by hash instead of being reported as retryable.
func TestLostBroadcastResponseIsWatched(t *testing.T) {
	chain := relayertest.NewChain()
	chain.LoseResponses(context.DeadlineExceeded)
	r := relayertest.Start(t, chain)

	receipt, err := r.MintBadgeAndWait(context.Background(), "evt-1", attendee, time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.TxHash)
	assert.Equal(t, uint64(1), r.Sequence())
	assert.Equal(t, 1, chain.Count(relayer.TxMintBadge))

	chain.LoseResponses(nil)
	_, err = r.MintBadgeAndWait(context.Background(), "evt-1", attendee, time.Second)
	require.NoError(t, err)
	envs := chain.Envelopes()
	require.Len(t, envs, 2)
	assert.Equal(t, uint64(2), envs[1].Sequence, "the next transaction does not reuse the spent sequence")
}

func TestAmbiguousBroadcastIsPendingNotRetryable(t *testing.T) {
	chain := relayertest.NewChain()
	chain.LoseResponses(errors.New("read tcp: connection reset by peer"))
	chain.Hold(true)
	r := relayertest.Start(t, chain, relayer.WithFinalityTimeout(40*time.Millisecond))

	f, err := r.MintBadge(context.Background(), "evt-1", attendee)
	require.NoError(t, err)

	_, err = f.Result()
	require.ErrorIs(t, err, relayer.ErrPending)
	assert.False(t, relayer.IsSubmission(err))
	assert.Equal(t, 1, chain.Count(relayer.TxMintBadge))
}

func TestQueuedTransactionExpiresBeforeBroadcast(t *testing.T) {
	chain := relayertest.NewChain()
	r := relayer.New(chain, newSigner(t),
		relayer.WithPollInterval(5*time.Millisecond),
		relayer.WithFinalityTimeout(30*time.Millisecond),
	)

	// No worker yet: the transaction outlives its deadline in the queue.
	f, err := r.MintBadge(context.Background(), "evt-1", attendee)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	run(t, r)

	_, err = f.Result()
	require.ErrorIs(t, err, relayer.ErrQueueExpired)
	assert.True(t, relayer.IsSubmission(err))
	assert.Empty(t, chain.Envelopes())
	assert.Zero(t, r.Sequence())
}

// TestSlowChainBacklogResolvesByDeadline queues transactions behind a slow
// node. Every future resolves within the finality timeout of its submission,
// and only transactions that never reached the node are reported retryable.
func TestSlowChainBacklogResolvesByDeadline(t *testing.T) {
	const (
		finality = 150 * time.Millisecond
		n        = 5
	)
	chain := relayertest.NewChain()
	chain.SlowBroadcasts(100 * time.Millisecond)
	r := relayertest.Start(t, chain, relayer.WithFinalityTimeout(finality))

	futures := make([]*relayer.Future, n)
	for i := range futures {
		f, err := r.MintBadge(context.Background(), "evt-1", attendee)
		require.NoError(t, err)
		futures[i] = f
	}
	submitted := time.Now()

	retryable := 0
	for i, f := range futures {
		select {
		case <-f.Done():
		case <-time.After(finality + 200*time.Millisecond):
			t.Fatalf("future %d unresolved well past its deadline", i)
		}
		_, err := f.Result()
		if relayer.IsSubmission(err) {
			require.ErrorIs(t, err, relayer.ErrQueueExpired)
			retryable++
		}
	}
	assert.Less(t, time.Since(submitted), finality+200*time.Millisecond)

	_, err := futures[0].Result()
	require.NoError(t, err, "the head of the queue is final")
	assert.Equal(t, n-retryable, chain.Count(relayer.TxMintBadge),
		"a retryable failure means nothing was sent")
}

func TestRejections(t *testing.T) {
	t.Run("at admission", func(t *testing.T) {
		chain := relayertest.NewChain()
		chain.RejectAtCheck(7)
		r := relayertest.Start(t, chain)

		_, err := r.MintBadgeAndWait(context.Background(), "evt-1", attendee, time.Second)
		var re *relayer.RejectedError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "check_tx", re.Stage)
		assert.Equal(t, uint32(7), re.Code)
		assert.False(t, relayer.IsSubmission(err))
	})

	t.Run("at execution", func(t *testing.T) {
		chain := relayertest.NewChain()
		chain.RejectAtDeliver(9)
		r := relayertest.Start(t, chain)

		_, err := r.MintBadgeAndWait(context.Background(), "evt-1", attendee, time.Second)
		var re *relayer.RejectedError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "deliver_tx", re.Stage)
	})
}

func TestBoundedWaitReturnsPendingAndFutureSettlesLater(t *testing.T) {
	chain := relayertest.NewChain()
	chain.Hold(true)
	r := relayertest.Start(t, chain)

	f, err := r.MintBadge(context.Background(), "evt-1", attendee)
	require.NoError(t, err)

	_, err = f.Await(context.Background(), 30*time.Millisecond)
	require.ErrorIs(t, err, relayer.ErrPending)

	chain.Hold(false)
	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("future did not settle after inclusion")
	}
	receipt, err := f.Result()
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.TxHash)
}

func TestFinalityDeadline(t *testing.T) {
	chain := relayertest.NewChain()
	chain.Hold(true)
	r := relayertest.Start(t, chain, relayer.WithFinalityTimeout(40*time.Millisecond))

	f, err := r.MintBadge(context.Background(), "evt-1", attendee)
	require.NoError(t, err)

	_, err = f.Result()
	require.ErrorIs(t, err, relayer.ErrFinalityTimeout)
	assert.ErrorIs(t, err, relayer.ErrPending, "an abandoned watch is still an unknown outcome")
}

func TestCallerCancellationIsPending(t *testing.T) {
	chain := relayertest.NewChain()
	chain.Hold(true)
	r := relayertest.Start(t, chain)

	f, err := r.MintBadge(context.Background(), "evt-1", attendee)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Await(ctx, time.Minute)
	assert.ErrorIs(t, err, relayer.ErrPending)
}

func TestCircuitOpensAfterTransportFailures(t *testing.T) {
	chain := relayertest.NewChain()
	chain.FailBroadcasts(errors.New("connection refused"))
	breaker := circuit.New("ledger", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	r := relayertest.Start(t, chain, relayer.WithBreaker(breaker))
	ctx := context.Background()

	for range 2 {
		_, err := r.MintBadgeAndWait(ctx, "evt-1", attendee, time.Second)
		require.True(t, relayer.IsSubmission(err))
	}
	require.True(t, breaker.IsOpen())

	chain.FailBroadcasts(nil)
	_, err := r.MintBadgeAndWait(ctx, "evt-1", attendee, time.Second)
	require.ErrorIs(t, err, relayer.ErrCircuitOpen)
	assert.Empty(t, chain.Envelopes(), "open circuit fails fast without broadcasting")
}

func TestSubmitAfterShutdown(t *testing.T) {
	r := relayer.New(relayertest.NewChain(), newSigner(t))
	cancel := run(t, r)
	cancel()

	require.Eventually(t, func() bool {
		_, err := r.MintBadge(context.Background(), "evt-1", attendee)
		return errors.Is(err, relayer.ErrClosed)
	}, time.Second, 5*time.Millisecond)
}

func TestEnqueueRespectsCallerContext(t *testing.T) {
	// No worker: the single queue slot fills and the next caller must give up.
	r := relayer.New(relayertest.NewChain(), newSigner(t), relayer.WithQueueSize(1))
	_, err := r.MintBadge(context.Background(), "evt-1", attendee)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.MintBadge(ctx, "evt-1", attendee)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, relayer.IsSubmission(err))
}
