package relayer

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := NewSigner("presence-relayer", priv.Seed())
	require.NoError(t, err)
	require.Equal(t, pub, signer.PublicKey())

	env, wire, err := signer.Seal(TxMintBadge, MintBadgeData{LedgerEventID: "evt-1", Recipient: "0xabc"}, 42)
	require.NoError(t, err)

	var parsed Envelope
	require.NoError(t, json.Unmarshal(wire, &parsed))
	require.Equal(t, env, parsed)

	ok, err := parsed.Verify(pub)
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("sequence is covered", func(t *testing.T) {
		tampered := parsed
		tampered.Sequence = 43
		ok, err := tampered.Verify(pub)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("payload is covered", func(t *testing.T) {
		tampered := parsed
		tampered.Payload.Data = json.RawMessage(`{"ledger_event_id":"evt-2","recipient":"0xabc"}`)
		ok, err := tampered.Verify(pub)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("other keys do not verify", func(t *testing.T) {
		otherPub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		ok, err := parsed.Verify(otherPub)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestNewSignerRejectsBadKeys(t *testing.T) {
	_, err := NewSigner("", make([]byte, ed25519.SeedSize))
	require.Error(t, err)
	_, err = NewSigner("p", []byte("short"))
	require.Error(t, err)
}
