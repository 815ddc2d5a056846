package llm

import (
	"context"
	"log/slog"
	"time"

	"chatrelay/internal/session"
	"chatrelay/internal/style"
)

// DefaultTimeout ограничение на один вызов бэкенда.
const DefaultTimeout = 60 * time.Second

// ChatService генерирует ответ в контексте сессии и дописывает ход в историю.
type ChatService struct {
	gateway  Gateway
	sessions *session.Store
	styles   *style.Registry
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// ChatServiceConfig конфигурация для создания ChatService.
type ChatServiceConfig struct {
	Gateway  Gateway
	Sessions *session.Store
	Styles   *style.Registry
	Timeout  time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

func NewChatService(cfg ChatServiceConfig) *ChatService {
	gw := cfg.Gateway
	if gw == nil {
		gw = Unavailable{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ChatService{
		gateway:  gw,
		sessions: cfg.Sessions,
		styles:   cfg.Styles,
		timeout:  timeout,
		now:      now,
		logger:   cfg.Logger,
	}
}

// Reply отправляет text в бэкенд с историей и персоной сессии.
// Сессия касается (и при простое сбрасывается) до вызова бэкенда.
// Пара user/assistant дописывается только при успехе; при ошибке история не меняется.
func (s *ChatService) Reply(ctx context.Context, conversationID, text string, mode Mode) (string, error) {
	history, expired := s.sessions.Begin(conversationID, s.now())
	if expired && s.logger != nil {
		s.logger.Info("session expired, history reset", slog.String("conversation_id", conversationID))
	}

	persona := s.styles.Resolve(s.sessions.Style(conversationID))
	if mode == ModeAutoReply {
		persona = autoReplyInstruction + "\n\n" + persona
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := s.now()
	answer, err := s.gateway.Complete(callCtx, Request{
		System:  persona,
		History: history,
		Prompt:  text,
		Profile: mode.Profile(),
	})
	if err != nil {
		return "", err
	}

	if s.logger != nil {
		s.logger.Debug("completion done",
			slog.String("conversation_id", conversationID),
			slog.String("mode", mode.String()),
			slog.Int("history_len", len(history)),
			slog.Int64("duration_ms", s.now().Sub(started).Milliseconds()),
		)
	}

	now := s.now()
	s.sessions.Append(conversationID,
		session.Message{Role: session.RoleUser, Content: text, Timestamp: now},
		session.Message{Role: session.RoleAssistant, Content: answer, Timestamp: now},
	)
	return answer, nil
}
