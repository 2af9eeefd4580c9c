package relayer

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// AppName routes envelopes to the badge application on the ledger.
const AppName = "presence"

// Transaction types understood by the ledger application.
const (
	TxRegisterEvent = "register_event"
	TxMintBadge     = "mint_badge"
)

// Payload is the typed body of a transaction.
type Payload struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Envelope is the signed wire form of a ledger transaction.
type Envelope struct {
	App       string  `json:"app"`
	Payload   Payload `json:"payload"`
	Principal string  `json:"principal"`
	Sequence  uint64  `json:"sequence"`
	Signature string  `json:"signature"`
}

// RegisterEventData is the payload of a register_event transaction.
type RegisterEventData struct {
	MetadataRef string `json:"metadata_ref"`
}

// MintBadgeData is the payload of a mint_badge transaction.
type MintBadgeData struct {
	LedgerEventID string `json:"ledger_event_id"`
	Recipient     string `json:"recipient"`
}

// Signer holds the service identity that authors every transaction.
type Signer struct {
	principal string
	key       ed25519.PrivateKey
}

// NewSigner builds a signer from an ed25519 seed or full private key.
func NewSigner(principal string, key []byte) (*Signer, error) {
	if principal == "" {
		return nil, errors.New("relayer principal is required")
	}
	switch len(key) {
	case ed25519.SeedSize:
		return &Signer{principal: principal, key: ed25519.NewKeyFromSeed(key)}, nil
	case ed25519.PrivateKeySize:
		return &Signer{principal: principal, key: ed25519.PrivateKey(key)}, nil
	default:
		return nil, fmt.Errorf("relayer key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(key))
	}
}

func (s *Signer) Principal() string { return s.principal }

// PublicKey is what the ledger application registers for the principal.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// Seal wraps data in a signed envelope and returns its wire bytes.
func (s *Signer) Seal(txType string, data any, sequence uint64) (Envelope, []byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("marshal %s payload: %w", txType, err)
	}
	env := Envelope{
		App:       AppName,
		Payload:   Payload{Type: txType, Data: raw},
		Principal: s.principal,
		Sequence:  sequence,
	}
	msg, err := env.signingBytes()
	if err != nil {
		return Envelope{}, nil, err
	}
	env.Signature = hex.EncodeToString(ed25519.Sign(s.key, msg))

	wire, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return env, wire, nil
}

// Verify checks the envelope signature against pub.
func (e Envelope) Verify(pub ed25519.PublicKey) (bool, error) {
	sig, err := hex.DecodeString(e.Signature)
	if err != nil {
		return false, fmt.Errorf("decode signature: %w", err)
	}
	msg, err := e.signingBytes()
	if err != nil {
		return false, err
	}
	return ed25519.Verify(pub, msg, sig), nil
}

// signingBytes covers everything except the signature, so the sequence and
// principal cannot be swapped onto another payload.
func (e Envelope) signingBytes() ([]byte, error) {
	unsigned := e
	unsigned.Signature = ""
	b, err := json.Marshal(unsigned)
	if err != nil {
		return nil, fmt.Errorf("marshal signing bytes: %w", err)
	}
	return b, nil
}
