// Package cometbft adapts a CometBFT RPC endpoint to the relayer's Chain.
//
// CometBFT commits blocks with instant finality, so a transaction returned by
// the tx endpoint is final.
package cometbft

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	rpcclient "github.com/cometbft/cometbft/rpc/client"
	"github.com/cometbft/cometbft/rpc/client/http"
	rpctypes "github.com/cometbft/cometbft/rpc/jsonrpc/types"
	"github.com/cometbft/cometbft/types"

	"presence/internal/relayer"
)

// Client is a relayer.Chain backed by a CometBFT node.
type Client struct {
	rpc rpcclient.Client
}

// Dial connects to the node RPC address, for example tcp://localhost:26657.
func Dial(addr string) (*Client, error) {
	c, err := http.New(addr, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("dial cometbft %s: %w", addr, err)
	}
	return &Client{rpc: c}, nil
}

// New wraps an existing RPC client.
func New(rpc rpcclient.Client) *Client {
	return &Client{rpc: rpc}
}

// Broadcast submits tx and waits for the mempool admission check. Errors that
// prove the request never left this process wrap relayer.ErrNotSent; any other
// error leaves the admission outcome unknown.
func (c *Client) Broadcast(ctx context.Context, tx []byte) (*relayer.BroadcastResult, error) {
	res, err := c.rpc.BroadcastTxSync(ctx, types.Tx(tx))
	if err != nil {
		if isNotSent(err) {
			return nil, fmt.Errorf("broadcast tx: %w: %w", relayer.ErrNotSent, err)
		}
		return nil, fmt.Errorf("broadcast tx: %w", err)
	}
	return &relayer.BroadcastResult{
		TxHash:    res.Hash.String(),
		Code:      res.Code,
		Codespace: res.Codespace,
		Log:       res.Log,
	}, nil
}

// HashTx returns the hash CometBFT indexes tx under, in the same form as the
// hashes Broadcast reports.
func (c *Client) HashTx(tx []byte) string {
	return strings.ToUpper(hex.EncodeToString(types.Tx(tx).Hash()))
}

// Lookup returns the committed transaction, or relayer.ErrNotIncluded while the
// node does not know it yet.
func (c *Client) Lookup(ctx context.Context, txHash string) (*relayer.Inclusion, error) {
	hash, err := hex.DecodeString(txHash)
	if err != nil {
		return nil, fmt.Errorf("decode tx hash: %w", err)
	}
	res, err := c.rpc.Tx(ctx, hash, false)
	if err != nil {
		if isNotFound(err) {
			return nil, relayer.ErrNotIncluded
		}
		return nil, fmt.Errorf("query tx: %w", err)
	}
	return &relayer.Inclusion{
		TxHash:    res.Hash.String(),
		Height:    res.Height,
		Code:      res.TxResult.Code,
		Codespace: res.TxResult.Codespace,
		Log:       res.TxResult.Log,
		Data:      res.TxResult.Data,
	}, nil
}

// Health checks the node responds to status queries.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.rpc.Status(ctx)
	return err
}

func isNotFound(err error) bool {
	var rpcErr *rpctypes.RPCError
	if errors.As(err, &rpcErr) {
		return strings.Contains(rpcErr.Data, "not found")
	}
	return strings.Contains(err.Error(), "not found")
}

// isNotSent reports failures that happen before any byte reaches the node.
func isNotSent(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
