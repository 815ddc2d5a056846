package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"chatrelay/internal/middleware"
	"chatrelay/internal/session"
	"chatrelay/internal/style"
)

// ReverseWSPath путь обратного WebSocket по соглашению OneBot v11.
const ReverseWSPath = "/onebot/v11/ws"

// AutoReplySettings таблица вероятностей авто-ответа.
type AutoReplySettings interface {
	Default() float64
	Probability(conversationID string) float64
	Set(conversationID string, p float64) float64
}

type RouterDeps struct {
	Logger    *slog.Logger
	Webhook   http.Handler
	ReverseWS http.Handler // nil, если обратный WebSocket выключен
	Sessions  *session.Store
	Styles    *style.Registry
	AutoReply AutoReplySettings
	Now       func() time.Time
}

// NewRouter собирает chi-роутер с общими middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Post("/", deps.Webhook.ServeHTTP)
	if deps.ReverseWS != nil {
		r.Get(ReverseWSPath, deps.ReverseWS.ServeHTTP)
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	h := &managementHandler{
		sessions:  deps.Sessions,
		styles:    deps.Styles,
		autoReply: deps.AutoReply,
		now:       now,
		logger:    deps.Logger,
	}

	r.Get("/test", h.test)
	r.Get("/history/all", h.allSessions)
	r.Get("/history/{id}", h.history)
	r.Delete("/history/{id}", h.clearHistory)
	r.Get("/session/{id}/info", h.sessionInfo)
	r.Get("/session/{id}/style", h.sessionStyle)
	r.Post("/session/{id}/style", h.setSessionStyle)
	r.Get("/session/{id}/auto-reply", h.autoReplyProbability)
	r.Post("/session/{id}/auto-reply", h.setAutoReplyProbability)
	r.Get("/styles", h.availableStyles)
	r.Get("/styles/sessions", h.sessionStyles)

	return r
}
