// Package identitytest produces real attendee identities and claim signatures for tests.
package identitytest

import (
	"encoding/hex"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"presence/internal/identity"
)

// Signer holds a throwaway secp256k1 key and its identity handle.
type Signer struct {
	key     *secp256k1.PrivateKey
	Address string
}

// NewSigner generates a fresh identity.
func NewSigner(t testing.TB) *Signer {
	t.Helper()
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &Signer{key: key, Address: identity.AddressOf(key.PubKey().SerializeUncompressed())}
}

// Sign returns a hex r||s||v personal-message signature over message.
func (s *Signer) Sign(message string) string {
	compact := ecdsa.SignCompact(s.key, identity.PersonalHash(message), false)
	sig := make([]byte, 65)
	copy(sig, compact[1:])
	sig[64] = compact[0]
	return "0x" + hex.EncodeToString(sig)
}

// SignClaim signs the canonical claim message for claimToken.
func (s *Signer) SignClaim(claimToken string) string {
	return s.Sign(identity.ClaimMessage(claimToken))
}
