// Package relayer submits ledger transactions under the service's single signing
// identity and reports when they reach finality.
//
// Callers enqueue work and receive a Future. One worker goroutine drains the
// queue, so transactions are signed with strictly increasing sequence numbers
// and broadcast in order. Finality is watched per transaction, off the worker.
package relayer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"presence/pkg/platform/circuit"
)

const (
	defaultQueueSize        = 256
	defaultPollInterval     = 250 * time.Millisecond
	defaultFinalityTimeout  = 2 * time.Minute
	defaultBroadcastTimeout = 10 * time.Second
)

var tracer = otel.Tracer("presence/relayer")

type job struct {
	txType        string
	data          any
	ledgerEventID string
	future        *Future
	// deadline is fixed at submission; queueing time counts against finality.
	deadline time.Time
}

// Relayer serializes submissions through one signing identity.
type Relayer struct {
	chain   Chain
	signer  *Signer
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *Metrics

	queue            chan *job
	pollInterval     time.Duration
	finalityTimeout  time.Duration
	broadcastTimeout time.Duration

	// sequence is written only by the worker.
	sequence atomic.Uint64

	mu       sync.RWMutex
	closed   bool
	stop     chan struct{}
	stopOnce sync.Once
	watchers sync.WaitGroup
}

type Option func(*Relayer)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relayer) {
		r.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relayer) {
		r.metrics = m
	}
}

// WithBreaker replaces the default ledger circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Relayer) {
		if b != nil {
			r.breaker = b
		}
	}
}

func WithQueueSize(n int) Option {
	return func(r *Relayer) {
		if n > 0 {
			r.queue = make(chan *job, n)
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Relayer) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithFinalityTimeout bounds the time from submission to a resolved future,
// including time spent queued behind other transactions.
func WithFinalityTimeout(d time.Duration) Option {
	return func(r *Relayer) {
		if d > 0 {
			r.finalityTimeout = d
		}
	}
}

func WithBroadcastTimeout(d time.Duration) Option {
	return func(r *Relayer) {
		if d > 0 {
			r.broadcastTimeout = d
		}
	}
}

// WithStartSequence sets the last sequence number already used by the identity.
func WithStartSequence(n uint64) Option {
	return func(r *Relayer) {
		r.sequence.Store(n)
	}
}

// New constructs a Relayer. Run must be started before submissions make progress.
func New(chain Chain, signer *Signer, opts ...Option) *Relayer {
	r := &Relayer{
		chain:            chain,
		signer:           signer,
		breaker:          circuit.New("ledger", circuit.WithFailureThreshold(5), circuit.WithCooldown(15*time.Second)),
		logger:           slog.Default(),
		queue:            make(chan *job, defaultQueueSize),
		pollInterval:     defaultPollInterval,
		finalityTimeout:  defaultFinalityTimeout,
		broadcastTimeout: defaultBroadcastTimeout,
		stop:             make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Sequence returns the last sequence number accepted by the ledger.
func (r *Relayer) Sequence() uint64 {
	return r.sequence.Load()
}

// RegisterEvent queues a register_event transaction. The receipt carries the
// ledger-assigned event id.
func (r *Relayer) RegisterEvent(ctx context.Context, metadataRef string) (*Future, error) {
	return r.submit(ctx, &job{
		txType: TxRegisterEvent,
		data:   RegisterEventData{MetadataRef: metadataRef},
	})
}

// MintBadge queues a mint_badge transaction for recipient.
func (r *Relayer) MintBadge(ctx context.Context, ledgerEventID, recipient string) (*Future, error) {
	return r.submit(ctx, &job{
		txType:        TxMintBadge,
		data:          MintBadgeData{LedgerEventID: ledgerEventID, Recipient: recipient},
		ledgerEventID: ledgerEventID,
	})
}

// RegisterEventAndWait submits and waits at most maxWait for finality.
func (r *Relayer) RegisterEventAndWait(ctx context.Context, metadataRef string, maxWait time.Duration) (*Receipt, error) {
	f, err := r.RegisterEvent(ctx, metadataRef)
	if err != nil {
		return nil, err
	}
	return f.Await(ctx, maxWait)
}

// MintBadgeAndWait submits and waits at most maxWait for finality.
func (r *Relayer) MintBadgeAndWait(ctx context.Context, ledgerEventID, recipient string, maxWait time.Duration) (*Receipt, error) {
	f, err := r.MintBadge(ctx, ledgerEventID, recipient)
	if err != nil {
		return nil, err
	}
	return f.Await(ctx, maxWait)
}

func (r *Relayer) submit(ctx context.Context, j *job) (*Future, error) {
	j.future = newFuture()
	j.deadline = time.Now().Add(r.finalityTimeout)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, &SubmissionError{Op: j.txType, Err: ErrClosed}
	}
	select {
	case r.queue <- j:
		r.metrics.setQueueDepth(len(r.queue))
		return j.future, nil
	case <-r.stop:
		return nil, &SubmissionError{Op: j.txType, Err: ErrClosed}
	case <-ctx.Done():
		return nil, &SubmissionError{Op: j.txType, Err: ctx.Err()}
	}
}

// Run drains the queue until ctx is cancelled. Queued work left at shutdown
// fails with ErrClosed; transactions already broadcast resolve as pending.
func (r *Relayer) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "relayer started",
		"principal", r.signer.Principal(),
		"sequence", r.Sequence(),
	)
	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			r.logger.Info("relayer stopped", "sequence", r.Sequence())
			return nil
		case j := <-r.queue:
			r.metrics.setQueueDepth(len(r.queue))
			r.process(ctx, j)
		}
	}
}

func (r *Relayer) shutdown() {
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	for {
		select {
		case j := <-r.queue:
			j.future.resolve(nil, &SubmissionError{Op: j.txType, Err: ErrClosed})
		default:
			r.metrics.setQueueDepth(0)
			r.watchers.Wait()
			return
		}
	}
}

func (r *Relayer) process(ctx context.Context, j *job) {
	ctx, span := tracer.Start(ctx, "relayer.broadcast")
	defer span.End()
	span.SetAttributes(attribute.String("tx.type", j.txType))

	fail := func(err error, outcome string) {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		r.metrics.incOutcome(j.txType, outcome)
		j.future.resolve(nil, err)
	}

	if !time.Now().Before(j.deadline) {
		r.logger.WarnContext(ctx, "dropping transaction that outlived its deadline in the queue",
			"tx_type", j.txType,
		)
		fail(&SubmissionError{Op: j.txType, Err: ErrQueueExpired}, "queue_expired")
		return
	}
	if !r.breaker.Allow() {
		fail(&SubmissionError{Op: j.txType, Err: ErrCircuitOpen}, "circuit_open")
		return
	}

	seq := r.sequence.Load() + 1
	span.SetAttributes(attribute.Int64("tx.sequence", int64(seq)))
	_, wire, err := r.signer.Seal(j.txType, j.data, seq)
	if err != nil {
		fail(&SubmissionError{Op: j.txType, Err: err}, "encode_error")
		return
	}

	bdeadline := time.Now().Add(r.broadcastTimeout)
	if j.deadline.Before(bdeadline) {
		bdeadline = j.deadline
	}
	bctx, cancel := context.WithDeadline(ctx, bdeadline)
	res, err := r.chain.Broadcast(bctx, wire)
	cancel()
	if err != nil {
		r.recordFailure(ctx)
		if errors.Is(err, ErrNotSent) {
			r.logger.WarnContext(ctx, "ledger broadcast failed",
				"tx_type", j.txType,
				"sequence", seq,
				"error", err,
			)
			fail(&SubmissionError{Op: j.txType, Err: err}, "transport_error")
			return
		}
		// The node may have admitted the transaction before the response was
		// lost, so the sequence is spent and the outcome is watched by hash.
		txHash := r.chain.HashTx(wire)
		r.sequence.Store(seq)
		span.SetAttributes(attribute.String("tx.hash", txHash))
		r.logger.WarnContext(ctx, "ledger broadcast outcome unknown; watching for inclusion",
			"tx_type", j.txType,
			"tx_hash", txHash,
			"sequence", seq,
			"error", err,
		)
		r.watchers.Add(1)
		go r.watch(context.WithoutCancel(ctx), j, txHash)
		return
	}
	r.recordSuccess(ctx)

	if res.Code != 0 {
		fail(&RejectedError{
			Op:        j.txType,
			Stage:     "check_tx",
			Code:      res.Code,
			Codespace: res.Codespace,
			Log:       res.Log,
		}, "rejected")
		return
	}

	r.sequence.Store(seq)
	span.SetAttributes(attribute.String("tx.hash", res.TxHash))
	r.logger.DebugContext(ctx, "ledger transaction broadcast",
		"tx_type", j.txType,
		"tx_hash", res.TxHash,
		"sequence", seq,
	)

	r.watchers.Add(1)
	go r.watch(context.WithoutCancel(ctx), j, res.TxHash)
}

// watch polls for inclusion until finality or the job's deadline. It runs
// detached from the caller and stops early only when the relayer shuts down.
func (r *Relayer) watch(ctx context.Context, j *job, txHash string) {
	defer r.watchers.Done()
	start := time.Now()

	ctx, cancel := context.WithDeadline(ctx, j.deadline)
	defer cancel()
	go func() {
		select {
		case <-r.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// The deadline may pass while the transaction already sits in a block.
			lctx, lcancel := context.WithTimeout(context.WithoutCancel(ctx), r.pollInterval)
			resolved := r.lookup(lctx, j, txHash, start)
			lcancel()
			if resolved {
				return
			}
			r.metrics.incOutcome(j.txType, "unconfirmed")
			r.logger.Warn("ledger transaction not final before deadline",
				"tx_type", j.txType,
				"tx_hash", txHash,
				"waited", time.Since(start).String(),
			)
			j.future.resolve(nil, ErrFinalityTimeout)
			return
		case <-ticker.C:
			if r.lookup(ctx, j, txHash, start) {
				return
			}
		}
	}
}

// lookup resolves the job's future once the transaction is in a block and
// reports whether it did.
func (r *Relayer) lookup(ctx context.Context, j *job, txHash string, start time.Time) bool {
	inc, err := r.chain.Lookup(ctx, txHash)
	if errors.Is(err, ErrNotIncluded) {
		return false
	}
	if err != nil {
		r.logger.Debug("ledger lookup failed; will retry", "tx_hash", txHash, "error", err)
		return false
	}
	if inc.Code != 0 {
		r.metrics.incOutcome(j.txType, "rejected")
		j.future.resolve(nil, &RejectedError{
			Op:        j.txType,
			Stage:     "deliver_tx",
			Code:      inc.Code,
			Codespace: inc.Codespace,
			Log:       inc.Log,
		})
		return true
	}
	r.metrics.incOutcome(j.txType, "final")
	r.metrics.observeFinality(j.txType, start)
	j.future.resolve(&Receipt{
		TxHash:        inc.TxHash,
		Height:        inc.Height,
		LedgerEventID: ledgerEventIDFor(j, inc),
	}, nil)
	return true
}

// registrationResult is the deliver-tx data of a register_event transaction.
type registrationResult struct {
	LedgerEventID string `json:"ledger_event_id"`
}

// ledgerEventIDFor prefers the id the ledger application reports and falls
// back to the transaction hash, which is unique per registration.
func ledgerEventIDFor(j *job, inc *Inclusion) string {
	if j.ledgerEventID != "" {
		return j.ledgerEventID
	}
	var res registrationResult
	if len(inc.Data) > 0 && json.Unmarshal(inc.Data, &res) == nil && res.LedgerEventID != "" {
		return res.LedgerEventID
	}
	return inc.TxHash
}

func (r *Relayer) recordFailure(ctx context.Context) {
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.metrics.setCircuitOpen(true)
		r.logger.ErrorContext(ctx, "ledger circuit opened", "breaker", r.breaker.Name())
	}
}

func (r *Relayer) recordSuccess(ctx context.Context) {
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.metrics.setCircuitOpen(false)
		r.logger.InfoContext(ctx, "ledger circuit closed", "breaker", r.breaker.Name())
	}
}
