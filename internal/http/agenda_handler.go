package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/conference-agenda/internal/application"
)

type agendaService interface {
	Generate(ctx context.Context, params application.GenerateAgendaParams) (application.Agenda, error)
}

// AgendaHandler generates personalised agendas.
type AgendaHandler struct {
	service   agendaService
	responder responder
	logger    *slog.Logger
}

func NewAgendaHandler(service agendaService, logger *slog.Logger) *AgendaHandler {
	return &AgendaHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *AgendaHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req agendaRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeDecodeError(r.Context(), h.responder, w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	agenda, err := h.service.Generate(r.Context(), req.toParams(principal))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	handlerLogger(r.Context(), h.logger, "AgendaHandler", "Generate", "user_id", principal.UserID).
		InfoContext(r.Context(), "agenda generated",
			"days", len(agenda.Days),
			"warnings", len(agenda.Warnings),
			"cached", agenda.Cached,
		)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAgendaDTO(agenda))
}
