// Package policy решает, что делать с входящим событием: модерация, команда,
// ответ модели, случайная реплика или тишина.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chatrelay/internal/command"
	"chatrelay/internal/llm"
	"chatrelay/internal/moderation"
	"chatrelay/internal/onebot"
	"chatrelay/internal/rng"
	"chatrelay/internal/session"
	"chatrelay/internal/style"
	"chatrelay/internal/transport"
)

const (
	replyUnavailable   = "抱歉，大模型服务未正确初始化。"
	replyFailed        = "抱歉，我现在无法回复，请稍后再试。"
	replyAutoFailed    = "emmm..."
	defaultBanDuration = 60 * time.Second
	banNoticeTemplate  = "[CQ:at,qq=%d] 检测到违禁词，禁言 %d 秒（第 %d 次违规）。"
)

// Chat генерация ответа с учётом истории беседы.
type Chat interface {
	Reply(ctx context.Context, conversationID, text string, mode llm.Mode) (string, error)
}

type Deps struct {
	Sessions        *session.Store
	Styles          *style.Registry
	Tracker         *moderation.Tracker
	BanList         *moderation.BanList
	Chat            Chat
	Transport       onebot.Client
	AutoReply       *AutoReply
	Rand            rng.Source
	BaseBanDuration time.Duration
	Logger          *slog.Logger
}

// Engine реализует onebot.Handler.
type Engine struct {
	sessions    *session.Store
	styles      *style.Registry
	tracker     *moderation.Tracker
	banList     *moderation.BanList
	chat        Chat
	transport   onebot.Client
	autoReply   *AutoReply
	rnd         rng.Source
	banDuration time.Duration
	logger      *slog.Logger
}

func NewEngine(deps Deps) *Engine {
	rnd := deps.Rand
	if rnd == nil {
		rnd = rng.New(0)
	}
	tracker := deps.Tracker
	if tracker == nil {
		tracker = moderation.NewTracker(rnd)
	}
	autoReply := deps.AutoReply
	if autoReply == nil {
		autoReply = NewAutoReply(DefaultAutoReplyProbability, nil)
	}
	banDuration := deps.BaseBanDuration
	if banDuration <= 0 {
		banDuration = defaultBanDuration
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sessions:    deps.Sessions,
		styles:      deps.Styles,
		tracker:     tracker,
		banList:     deps.BanList,
		chat:        deps.Chat,
		transport:   deps.Transport,
		autoReply:   autoReply,
		rnd:         rnd,
		banDuration: banDuration,
		logger:      logger,
	}
}

// Handle обрабатывает одно событие. Сбои доставки и модели не считаются ошибкой события:
// они логируются, а пользователю уходит запасной ответ.
func (e *Engine) Handle(ctx context.Context, ev onebot.Event) error {
	if !ev.IsMessage() || ev.IsSelf() {
		return nil
	}
	if !ev.IsGroup() && !ev.IsPrivate() {
		return nil
	}

	id := ev.ConversationID()
	text, mentioned := ev.Message.Fold(ev.SelfID)

	if ev.IsGroup() {
		e.moderate(ctx, ev, text)
	}

	if text == "" {
		return nil
	}

	if ev.IsPrivate() || mentioned {
		e.handleDirected(ctx, ev, id, text)
		return nil
	}

	e.maybeAutoReply(ctx, ev, id, text)
	return nil
}

func (e *Engine) moderate(ctx context.Context, ev onebot.Event, text string) {
	word, ok := e.banList.Match(text)
	if !ok {
		return
	}

	count := e.tracker.RecordViolation(ev.UserID)
	duration := e.tracker.ComputeDuration(ev.UserID, e.banDuration)
	e.logger.Info("ban word detected",
		slog.Int64("group_id", ev.GroupID),
		slog.Int64("user_id", ev.UserID),
		slog.String("word", word),
		slog.Int("violations", count),
		slog.Duration("duration", duration),
	)

	if err := e.transport.Ban(ctx, ev.GroupID, ev.UserID, duration); err != nil {
		e.logTransportError("ban failed", ev, err)
	}
	notice := fmt.Sprintf(banNoticeTemplate, ev.UserID, int64(duration/time.Second), count)
	if err := e.transport.SendGroup(ctx, ev.GroupID, notice); err != nil {
		e.logTransportError("ban notice failed", ev, err)
	}
}

func (e *Engine) handleDirected(ctx context.Context, ev onebot.Event, id, text string) {
	if cmd := command.Parse(text); cmd.IsCommand() {
		e.logger.Info("command", slog.String("conversation_id", id), slog.String("kind", cmd.Kind.String()))
		e.send(ctx, ev, e.execute(id, cmd))
		return
	}

	answer, err := e.chat.Reply(ctx, id, text, llm.ModeNormal)
	if err != nil {
		e.logger.Error("completion failed",
			slog.String("conversation_id", id),
			slog.String("reason", completionReason(err)),
			slog.String("error", err.Error()))
		if errors.Is(err, llm.ErrUnavailable) {
			answer = replyUnavailable
		} else {
			answer = replyFailed
		}
	}
	e.send(ctx, ev, answer)
}

func (e *Engine) maybeAutoReply(ctx context.Context, ev onebot.Event, id, text string) {
	p := e.autoReply.Probability(id)
	if u := e.rnd.Float64(); u >= p {
		return
	}
	e.logger.Info("auto reply triggered", slog.String("conversation_id", id), slog.Float64("probability", p))

	answer, err := e.chat.Reply(ctx, id, text, llm.ModeAutoReply)
	if err != nil {
		e.logger.Warn("auto reply failed",
			slog.String("conversation_id", id),
			slog.String("reason", completionReason(err)),
			slog.String("error", err.Error()))
		answer = replyAutoFailed
	}
	e.send(ctx, ev, answer)
}

// send отвечает в ту же беседу, откуда пришло событие.
func (e *Engine) send(ctx context.Context, ev onebot.Event, text string) {
	var err error
	if ev.IsGroup() {
		err = e.transport.SendGroup(ctx, ev.GroupID, text)
	} else {
		err = e.transport.SendPrivate(ctx, ev.UserID, text)
	}
	if err != nil {
		e.logTransportError("send failed", ev, err)
	}
}

// completionReason отличает несконфигурированный бэкенд от сетевых сбоев.
func completionReason(err error) string {
	if errors.Is(err, llm.ErrUnavailable) {
		return "unavailable"
	}
	return transport.Reason(err)
}

func (e *Engine) logTransportError(msg string, ev onebot.Event, err error) {
	e.logger.Warn(msg,
		slog.String("conversation_id", ev.ConversationID()),
		slog.String("reason", transport.Reason(err)),
		slog.String("error", err.Error()))
}
