package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/conference-agenda/internal/application"
)

type profileService interface {
	Get(ctx context.Context, principal application.Principal) (application.Profile, error)
	Update(ctx context.Context, principal application.Principal, input application.ProfileInput) (application.Profile, error)
}

// ProfileHandler reads and updates the caller's profile.
type ProfileHandler struct {
	service   profileService
	responder responder
}

func NewProfileHandler(service profileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, responder: newResponder(logger)}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	profile, err := h.service.Get(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProfileDTO(profile))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeDecodeError(r.Context(), h.responder, w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	profile, err := h.service.Update(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProfileDTO(profile))
}

// writeDecodeError answers 400 for unreadable bodies and 422 for bodies that
// fail validation.
func writeDecodeError(ctx context.Context, responder responder, w http.ResponseWriter, err error) {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		responder.handleServiceError(ctx, w, vErr)
		return
	}
	responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
}
