package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"chatrelay/internal/session"
	"chatrelay/internal/style"
)

const statusSuccess = "success"

// managementHandler отладочные эндпоинты: история, стили, вероятность авто-ответа.
type managementHandler struct {
	sessions  *session.Store
	styles    *style.Registry
	autoReply AutoReplySettings
	now       func() time.Time
	logger    *slog.Logger
}

type sessionSummary struct {
	Length                     int      `json:"length"`
	LastMessage                *string  `json:"last_message"`
	LastActiveTime             *float64 `json:"last_active_time"`
	TimeSinceLastActiveMinutes *float64 `json:"time_since_last_active_minutes"`
}

func (h *managementHandler) test(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "Bot is running!",
		"message": "QQ机器人正常运行",
	})
}

func (h *managementHandler) history(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history := h.sessions.History(id)
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":         statusSuccess,
		"session_id":     id,
		"history_length": len(history),
		"history":        history,
	})
}

func (h *managementHandler) clearHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.sessions.Clear(id)
	h.logger.Info("history cleared", slog.String("conversation_id", id))
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  statusSuccess,
		"message": fmt.Sprintf("已清空会话 %s 的历史记录", id),
	})
}

func (h *managementHandler) allSessions(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	snapshot := h.sessions.SnapshotAll()

	sessions := make(map[string]sessionSummary, len(snapshot))
	for id, sum := range snapshot {
		item := sessionSummary{Length: sum.Length}
		if sum.HasMessages {
			last := sum.LastMessage
			item.LastMessage = &last
		}
		if !sum.LastActiveAt.IsZero() {
			ts := unixSeconds(sum.LastActiveAt)
			minutes := now.Sub(sum.LastActiveAt).Minutes()
			item.LastActiveTime = &ts
			item.TimeSinceLastActiveMinutes = &minutes
		}
		sessions[id] = item
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status":         statusSuccess,
		"total_sessions": len(sessions),
		"sessions":       sessions,
	})
}

func (h *managementHandler) sessionInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sum := h.sessions.Info(id)

	var lastActive, since *float64
	if !sum.LastActiveAt.IsZero() {
		ts := unixSeconds(sum.LastActiveAt)
		sec := h.now().Sub(sum.LastActiveAt).Seconds()
		lastActive, since = &ts, &sec
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status":                 statusSuccess,
		"session_id":             id,
		"history_length":         sum.Length,
		"last_active_time":       lastActive,
		"time_since_last_active": since,
		"current_style":          h.sessions.Style(id),
	})
}

func (h *managementHandler) availableStyles(w http.ResponseWriter, r *http.Request) {
	names := h.styles.Names()
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":           statusSuccess,
		"available_styles": names,
		"total_count":      len(names),
		"default_style":    h.styles.Default(),
	})
}

func (h *managementHandler) sessionStyle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":        statusSuccess,
		"session_id":    id,
		"current_style": h.sessions.Style(id),
	})
}

type setStyleRequest struct {
	Style string `json:"style"`
}

func (h *managementHandler) setSessionStyle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req setStyleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "请求体不是合法的 JSON")
		return
	}
	if req.Style == "" {
		WriteJSONError(w, http.StatusBadRequest, "请提供style参数")
		return
	}
	if err := h.styles.Validate(req.Style); err != nil {
		var unknown *style.UnknownError
		if errors.As(err, &unknown) {
			WriteJSONError(w, http.StatusBadRequest, unknown.Error())
			return
		}
		WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.sessions.SetStyle(id, req.Style)
	h.logger.Info("style changed", slog.String("conversation_id", id), slog.String("style", req.Style))
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":     statusSuccess,
		"message":    fmt.Sprintf("已将会话 %s 切换到 %s 风格", id, req.Style),
		"session_id": id,
		"new_style":  req.Style,
	})
}

func (h *managementHandler) sessionStyles(w http.ResponseWriter, r *http.Request) {
	styles := h.sessions.Styles()
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":         statusSuccess,
		"session_styles": styles,
		"total_sessions": len(styles),
	})
}

func (h *managementHandler) autoReplyProbability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":              statusSuccess,
		"session_id":          id,
		"probability":         h.autoReply.Probability(id),
		"default_probability": h.autoReply.Default(),
	})
}

type setAutoReplyRequest struct {
	Probability *float64 `json:"probability"`
}

func (h *managementHandler) setAutoReplyProbability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req setAutoReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "请求体不是合法的 JSON")
		return
	}
	if req.Probability == nil {
		WriteJSONError(w, http.StatusBadRequest, "请提供probability参数")
		return
	}
	if p := *req.Probability; p < 0 || p > 1 {
		WriteJSONError(w, http.StatusBadRequest, "probability 必须在 [0, 1] 范围内")
		return
	}

	p := h.autoReply.Set(id, *req.Probability)
	h.logger.Info("auto reply probability changed", slog.String("conversation_id", id), slog.Float64("probability", p))
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":      statusSuccess,
		"session_id":  id,
		"probability": p,
	})
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
