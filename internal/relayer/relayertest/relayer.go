package relayertest

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"presence/internal/relayer"
)

// Start runs a relayer against chain for the life of the test.
func Start(t testing.TB, chain relayer.Chain, opts ...relayer.Option) *relayer.Relayer {
	t.Helper()
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate relayer key: %v", err)
	}
	signer, err := relayer.NewSigner("presence-relayer", key)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	base := []relayer.Option{relayer.WithPollInterval(5 * time.Millisecond), relayer.WithFinalityTimeout(2 * time.Second)}
	r := relayer.New(chain, signer, append(base, opts...)...)

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
	return r
}
