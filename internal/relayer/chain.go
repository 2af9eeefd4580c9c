package relayer

import (
	"context"
	"errors"
)

var (
	// ErrNotIncluded is returned by Chain.Lookup while a transaction is not yet in a block.
	ErrNotIncluded = errors.New("transaction not included")
	// ErrNotSent is wrapped by Chain.Broadcast errors when the transaction
	// certainly never reached the node, for example a refused connection.
	ErrNotSent = errors.New("transaction not sent")
)

// BroadcastResult is the ledger's admission decision for a transaction.
type BroadcastResult struct {
	TxHash    string
	Code      uint32
	Codespace string
	Log       string
}

// Inclusion describes a transaction found in a committed block.
type Inclusion struct {
	TxHash    string
	Height    int64
	Code      uint32
	Codespace string
	Log       string
	Data      []byte
}

// Chain is the narrow ledger surface the relayer drives. Admission and
// execution results are reported through Code. A Broadcast error that does not
// wrap ErrNotSent leaves the outcome unknown: the node may have admitted the
// transaction before the response was lost.
type Chain interface {
	Broadcast(ctx context.Context, tx []byte) (*BroadcastResult, error)
	Lookup(ctx context.Context, txHash string) (*Inclusion, error)
	// HashTx returns the hash the ledger will index tx under.
	HashTx(tx []byte) string
}
