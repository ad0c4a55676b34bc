package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/conference-agenda/internal/application"
)

type favoriteService interface {
	List(ctx context.Context, principal application.Principal) ([]application.Favorite, error)
	Add(ctx context.Context, params application.AddFavoriteParams) (application.Favorite, application.ConflictReport, error)
	Remove(ctx context.Context, principal application.Principal, sessionID string) error
	CheckConflicts(ctx context.Context, principal application.Principal, sessionID string) (application.ConflictReport, error)
}

// FavoriteHandler manages the caller's favorites.
type FavoriteHandler struct {
	service   favoriteService
	responder responder
	logger    *slog.Logger
}

func NewFavoriteHandler(service favoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	favorites, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]favoriteDTO, 0, len(favorites))
	for _, f := range favorites {
		out = append(out, toFavoriteDTO(f))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"favorites": out})
}

func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	allowConflicts := false
	if raw := r.URL.Query().Get("allow_conflicts"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"allow_conflicts": "must be a boolean"},
			})
			return
		}
		allowConflicts = parsed
	}

	principal, _ := PrincipalFromContext(r.Context())
	favorite, report, err := h.service.Add(r.Context(), application.AddFavoriteParams{
		Principal:      principal,
		SessionID:      sessionID,
		AllowConflicts: allowConflicts,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if report.HasConflicts {
		handlerLogger(r.Context(), h.logger, "FavoriteHandler", "Add", "session_id", sessionID).
			InfoContext(r.Context(), "favorite added despite conflicts", "conflicts", len(report.Conflicts))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, addFavoriteResponse{
		Favorite: toFavoriteDTO(favorite),
		Report:   toConflictReportDTO(report),
	})
}

func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.Remove(r.Context(), principal, strings.TrimSpace(chi.URLParam(r, "sessionID"))); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *FavoriteHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req conflictCheckRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeDecodeError(r.Context(), h.responder, w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	report, err := h.service.CheckConflicts(r.Context(), principal, req.SessionID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toConflictReportDTO(report))
}
