package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches wrapped domain error", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeNotFound, "event not found"))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeStoreUnavailable, "failed to store event")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithDetail(t *testing.T) {
	err := New(CodeOutOfRange, "too far").
		WithDetail("distance_meters", 512.3).
		WithDetail("radius_meters", 200.0)

	assert.Equal(t, 512.3, err.Details["distance_meters"])
	assert.Equal(t, 200.0, err.Details["radius_meters"])
}

func TestIsRetryable(t *testing.T) {
	retryable := []Code{CodeLedgerUnavailable, CodeStoreUnavailable, CodePending}
	for _, code := range retryable {
		assert.True(t, IsRetryable(New(code, "x")), string(code))
	}

	final := []Code{CodeValidation, CodeNotFound, CodeOutOfRange, CodeInvalidSignature, CodeAlreadyClaimed, CodeMintFailed}
	for _, code := range final {
		assert.False(t, IsRetryable(New(code, "x")), string(code))
	}
	assert.False(t, IsRetryable(errors.New("plain")))
}
