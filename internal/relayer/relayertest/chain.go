// Package relayertest provides an in-memory ledger for relayer and pipeline tests.
package relayertest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"presence/internal/relayer"
)

type entry struct {
	env    relayer.Envelope
	height int64
	data   []byte
}

// Chain is an in-memory relayer.Chain. Broadcast transactions are included
// immediately unless the chain is holding.
type Chain struct {
	mu sync.Mutex

	txs       map[string]*entry
	envelopes []relayer.Envelope
	height    int64
	events    int

	broadcastErr error
	lostErr      error
	delay        time.Duration
	checkCode    uint32
	deliverCode  uint32
	hold         bool
}

func NewChain() *Chain {
	return &Chain{txs: make(map[string]*entry)}
}

// FailBroadcasts makes every broadcast fail before reaching the chain, as a
// refused connection would. The returned error wraps relayer.ErrNotSent and err.
// Nil restores.
func (c *Chain) FailBroadcasts(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcastErr = err
}

// LoseResponses makes every broadcast admit the transaction and then return
// err, as a timeout after the node accepted the request would. Nil restores.
func (c *Chain) LoseResponses(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lostErr = err
}

// SlowBroadcasts delays every broadcast response by d after admission. A
// caller whose context ends first gets its context error, and the transaction
// stays admitted.
func (c *Chain) SlowBroadcasts(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delay = d
}

// RejectAtCheck makes admission fail with code. Zero restores.
func (c *Chain) RejectAtCheck(code uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkCode = code
}

// RejectAtDeliver makes included transactions fail execution with code. Zero restores.
func (c *Chain) RejectAtDeliver(code uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deliverCode = code
}

// Hold stops transactions from being included until it is called with false.
func (c *Chain) Hold(hold bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hold = hold
}

func (c *Chain) Broadcast(ctx context.Context, tx []byte) (*relayer.BroadcastResult, error) {
	res, delay, err := c.admit(tx)
	if err != nil || delay == 0 {
		return res, err
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
		return res, nil
	}
}

func (c *Chain) admit(tx []byte) (*relayer.BroadcastResult, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broadcastErr != nil {
		return nil, 0, fmt.Errorf("%w: %w", relayer.ErrNotSent, c.broadcastErr)
	}
	res := c.include(tx)
	if c.lostErr != nil && res.Code == 0 {
		return nil, 0, c.lostErr
	}
	return res, c.delay, nil
}

func (c *Chain) include(tx []byte) *relayer.BroadcastResult {
	var env relayer.Envelope
	if err := json.Unmarshal(tx, &env); err != nil {
		return &relayer.BroadcastResult{Code: 2, Codespace: "tx", Log: "malformed envelope"}
	}
	hash := c.HashTx(tx)
	if c.checkCode != 0 {
		return &relayer.BroadcastResult{TxHash: hash, Code: c.checkCode, Codespace: "presence", Log: "rejected at admission"}
	}

	c.height++
	e := &entry{env: env, height: c.height}
	if env.Payload.Type == relayer.TxRegisterEvent {
		c.events++
		e.data = []byte(fmt.Sprintf(`{"ledger_event_id":"evt-%d"}`, c.events))
	}
	c.txs[hash] = e
	c.envelopes = append(c.envelopes, env)
	return &relayer.BroadcastResult{TxHash: hash}
}

// HashTx is the lowercase hex sha256 of tx.
func (c *Chain) HashTx(tx []byte) string {
	sum := sha256.Sum256(tx)
	return hex.EncodeToString(sum[:])
}

func (c *Chain) Lookup(_ context.Context, txHash string) (*relayer.Inclusion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.txs[txHash]
	if !ok || c.hold {
		return nil, relayer.ErrNotIncluded
	}
	inc := &relayer.Inclusion{TxHash: txHash, Height: e.height, Data: e.data}
	if c.deliverCode != 0 {
		inc.Code, inc.Codespace, inc.Log = c.deliverCode, "presence", "rejected at execution"
	}
	return inc, nil
}

// Envelopes returns every admitted envelope in broadcast order.
func (c *Chain) Envelopes() []relayer.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]relayer.Envelope(nil), c.envelopes...)
}

// Count returns how many admitted transactions have the given type.
func (c *Chain) Count(txType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, env := range c.envelopes {
		if env.Payload.Type == txType {
			n++
		}
	}
	return n
}
