package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/conference-agenda/internal/application"
)

type catalogService interface {
	ListSessions(ctx context.Context, search application.SessionSearch) ([]application.Session, error)
	GetSession(ctx context.Context, id string) (application.Session, error)
	ListSpeakers(ctx context.Context, text string) ([]application.Speaker, error)
	GetSpeaker(ctx context.Context, id string) (application.SpeakerDetail, error)
}

// CatalogHandler serves the session catalog and speaker directory.
type CatalogHandler struct {
	service   catalogService
	responder responder
	logger    *slog.Logger
}

func NewCatalogHandler(service catalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *CatalogHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	search, err := parseSessionSearch(r.URL.Query())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), search)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "CatalogHandler", "ListSessions").
		DebugContext(r.Context(), "sessions listed", "count", len(sessions))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"sessions": toSessionDTOs(sessions)})
}

func (h *CatalogHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidIdentity)
		return
	}

	session, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

func (h *CatalogHandler) ListSpeakers(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	speakers, err := h.service.ListSpeakers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]speakerDTO, 0, len(speakers))
	for _, sp := range speakers {
		out = append(out, toSpeakerDTO(sp))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"speakers": out})
}

func (h *CatalogHandler) GetSpeaker(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidIdentity)
		return
	}

	detail, err := h.service.GetSpeaker(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, speakerDetailDTO{
		speakerDTO: toSpeakerDTO(detail.Speaker),
		Sessions:   toSessionDTOs(detail.Sessions),
	})
}

// parseSessionSearch converts query parameters into a search. Malformed
// values are reported together as a validation error.
func parseSessionSearch(values url.Values) (application.SessionSearch, error) {
	search := application.SessionSearch{
		Text:      strings.TrimSpace(values.Get("q")),
		Track:     strings.TrimSpace(values.Get("track")),
		SpeakerID: strings.TrimSpace(values.Get("speaker")),
	}
	for _, raw := range values["tags"] {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				search.Tags = append(search.Tags, tag)
			}
		}
	}

	vErr := &application.ValidationError{}
	if raw := strings.TrimSpace(values.Get("from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			vErr.FieldErrors = setField(vErr.FieldErrors, "from", "must be an RFC 3339 timestamp")
		}
		search.From = from
	}
	if raw := strings.TrimSpace(values.Get("to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			vErr.FieldErrors = setField(vErr.FieldErrors, "to", "must be an RFC 3339 timestamp")
		}
		search.To = to
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			vErr.FieldErrors = setField(vErr.FieldErrors, "limit", "must be an integer")
		}
		search.Limit = limit
	}
	if raw := strings.TrimSpace(values.Get("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			vErr.FieldErrors = setField(vErr.FieldErrors, "offset", "must be an integer")
		}
		search.Offset = offset
	}

	if vErr.HasErrors() {
		return application.SessionSearch{}, vErr
	}
	return search, nil
}

func setField(fields map[string]string, field, message string) map[string]string {
	if fields == nil {
		fields = make(map[string]string)
	}
	fields[field] = message
	return fields
}
