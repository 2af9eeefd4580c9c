// Package httputil writes JSON responses and translates domain errors into
// HTTP status codes and the public error envelope.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "presence/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// WriteJSON writes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope for err. Errors without a domain code
// are reported as internal errors and never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.From(err)
	if !ok {
		de = dErrors.New(dErrors.CodeInternal, "internal error")
	}
	status := StatusFor(de.Code)

	body := make(map[string]any, len(de.Details)+3)
	for k, v := range de.Details {
		body[k] = v
	}
	body["error"] = publicCode(de.Code)
	if de.Code != dErrors.CodeInternal {
		body["error_description"] = de.Message
	}
	if dErrors.IsRetryable(de) {
		body["retryable"] = true
	}
	WriteJSON(w, status, body)
}

// StatusFor maps a domain error code to its HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeOutOfRange, dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeInvalidSignature, dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeAlreadyClaimed, dErrors.CodeClaimInProgress:
		return http.StatusConflict
	case dErrors.CodeMintFailed, dErrors.CodeLedgerRejected:
		return http.StatusUnprocessableEntity
	case dErrors.CodeLedgerUnavailable, dErrors.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodePending:
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

func publicCode(code dErrors.Code) string {
	if code == dErrors.CodeInternal {
		return "internal_error"
	}
	return string(code)
}

type preparable interface {
	Normalize()
	Validate() error
}

// DecodeAndPrepare decodes a JSON body into T, then normalizes and validates it
// when T supports that. On failure it writes the error response and returns false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "request body too large"
		}
		if logger != nil {
			logger.WarnContext(ctx, "failed to decode request", "request_id", requestID, "error", err)
		}
		WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, msg))
		return nil, false
	}

	if p, ok := any(&req).(preparable); ok {
		p.Normalize()
		if err := p.Validate(); err != nil {
			if logger != nil {
				logger.InfoContext(ctx, "request failed validation", "request_id", requestID, "error", err)
			}
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}
