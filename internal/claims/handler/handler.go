// Package handler exposes the claim pipeline over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"presence/internal/claims/models"
	dErrors "presence/pkg/domain-errors"
	"presence/pkg/platform/httputil"
	"presence/pkg/platform/middleware/request"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the claim pipeline as the HTTP layer sees it.
type Service interface {
	RegisterEvent(ctx context.Context, req *models.RegisterEventRequest) (*models.RegisterEventResult, error)
	Claim(ctx context.Context, req *models.ClaimRequest) (*models.ClaimResult, error)
	ListBadges(ctx context.Context, identity string) ([]models.Badge, error)
	EventMetadata(ctx context.Context, ledgerEventID string) (*models.EventMetadata, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes. organizer guards event registration only;
// claims and reads are public.
func (h *Handler) Register(r chi.Router, organizer ...func(http.Handler) http.Handler) {
	r.With(organizer...).With(request.ContentTypeJSON).Post("/events", h.handleRegisterEvent)
	r.With(request.ContentTypeJSON).Post("/claims", h.handleClaim)
	r.Get("/identities/{identity}/badges", h.handleListBadges)
	r.Get("/ledger-events/{ledgerEventID}", h.handleEventMetadata)
}

func (h *Handler) handleRegisterEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegisterEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.RegisterEvent(ctx, req)
	if err != nil {
		h.logFailure(ctx, "register event failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.ClaimRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Claim(ctx, req)
	if err != nil {
		h.logFailure(ctx, "claim failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if res.Status == models.ClaimOutcomePending {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, res)
}

func (h *Handler) handleListBadges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	badges, err := h.service.ListBadges(ctx, chi.URLParam(r, "identity"))
	if err != nil {
		h.logFailure(ctx, "list badges failed", request.GetRequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	if badges == nil {
		badges = []models.Badge{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"badges": badges})
}

func (h *Handler) handleEventMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meta, err := h.service.EventMetadata(ctx, chi.URLParam(r, "ledgerEventID"))
	if err != nil {
		h.logFailure(ctx, "event metadata lookup failed", request.GetRequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, meta)
}

// logFailure logs client-caused outcomes at info and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg, requestID string, err error) {
	if httputil.StatusFor(codeOf(err)) < http.StatusInternalServerError {
		h.logger.InfoContext(ctx, msg, "request_id", requestID, "error", err)
		return
	}
	h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
}

func codeOf(err error) dErrors.Code {
	if de, ok := dErrors.From(err); ok {
		return de.Code
	}
	return dErrors.CodeInternal
}
