// Package identity verifies that an attendee's identity handle authorized a claim.
//
// Identity handles are 20-byte account addresses rendered as 0x-prefixed hex and
// compared case-insensitively. A claim is authorized by a personal-message signature
// over a canonical message derived only from the claim token, so a signature made for
// one event cannot be replayed against another or against an unrelated action.
package identity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

var (
	// ErrInvalidHandle marks a malformed identity handle.
	ErrInvalidHandle = errors.New("invalid identity handle")
	// ErrInvalidSignature marks a signature that cannot be recovered or was produced
	// by a different identity. Callers must never retry on this error.
	ErrInvalidSignature = errors.New("invalid signature")
)

const (
	handleHexLen    = 40
	signatureLen    = 65
	personalPrefix  = "\x19Ethereum Signed Message:\n"
	claimMsgPattern = "I am claiming my proof-of-presence badge.\n\nClaim token: %s"
)

// NormalizeHandle validates an identity handle and returns its lowercase form.
func NormalizeHandle(handle string) (string, error) {
	h := strings.TrimSpace(handle)
	rest, ok := strings.CutPrefix(h, "0x")
	if !ok {
		rest, ok = strings.CutPrefix(h, "0X")
	}
	if !ok || len(rest) != handleHexLen {
		return "", fmt.Errorf("%w: expected 0x followed by %d hex characters", ErrInvalidHandle, handleHexLen)
	}
	if _, err := hex.DecodeString(rest); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	return "0x" + strings.ToLower(rest), nil
}

// ClaimMessage is the canonical text an attendee signs to claim the event behind claimToken.
func ClaimMessage(claimToken string) string {
	return fmt.Sprintf(claimMsgPattern, claimToken)
}

// Verifier recovers the signer of personal-message signatures.
type Verifier struct{}

// NewVerifier returns a signature verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify checks that signatureHex over message was produced by claimedIdentity.
func (v *Verifier) Verify(message, signatureHex, claimedIdentity string) error {
	want, err := NormalizeHandle(claimedIdentity)
	if err != nil {
		return ErrInvalidSignature
	}
	got, err := Recover(message, signatureHex)
	if err != nil {
		return err
	}
	if got != want {
		return ErrInvalidSignature
	}
	return nil
}

// Recover returns the lowercase handle that signed message.
func Recover(message, signatureHex string) (string, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signatureHex), "0x"))
	if err != nil || len(sig) != signatureLen {
		return "", ErrInvalidSignature
	}

	// r||s||v -> v||r||s, with v normalised to the uncompressed-key recovery code range.
	v := sig[64]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return "", ErrInvalidSignature
	}
	compact := make([]byte, signatureLen)
	compact[0] = v
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, PersonalHash(message))
	if err != nil {
		return "", ErrInvalidSignature
	}
	return AddressOf(pub.SerializeUncompressed()), nil
}

// PersonalHash is the Keccak-256 digest of message under the personal-message prefix.
func PersonalHash(message string) []byte {
	return keccak256([]byte(personalPrefix + strconv.Itoa(len(message)) + message))
}

// AddressOf derives the identity handle of a 65-byte uncompressed public key.
func AddressOf(uncompressed []byte) string {
	digest := keccak256(uncompressed[1:])
	return "0x" + hex.EncodeToString(digest[12:])
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
