package onebot

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chatrelay/internal/httpserver"
)

type WebhookDeps struct {
	Handler Handler
	Logger  *slog.Logger
}

// WebhookHandler принимает события OneBot через HTTP POST.
// Обработка синхронная: ответ отдаётся после того, как политика отработала.
type WebhookHandler struct {
	handler Handler
	logger  *slog.Logger
}

func NewWebhookHandler(deps WebhookDeps) *WebhookHandler {
	return &WebhookHandler{
		handler: deps.Handler,
		logger:  deps.Logger,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var ev Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		h.logger.Warn("cannot decode event", slog.String("error", err.Error()))
		httpserver.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := dispatch(r.Context(), h.handler, ev); err != nil {
		h.logger.Error("event handling failed",
			slog.String("conversation_id", ev.ConversationID()),
			slog.String("error", err.Error()))
		httpserver.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpserver.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
