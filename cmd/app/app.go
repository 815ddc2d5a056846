package main

import (
	"context"
	"log/slog"
	"net/http"

	"chatrelay/internal/config"
	"chatrelay/internal/httpserver"
	"chatrelay/internal/llm"
	"chatrelay/internal/moderation"
	"chatrelay/internal/onebot"
	"chatrelay/internal/policy"
	"chatrelay/internal/rng"
	"chatrelay/internal/session"
	"chatrelay/internal/style"
	"chatrelay/internal/transport"
)

// app собранные компоненты процесса.
type app struct {
	router    http.Handler
	reverseWS *onebot.ReverseWS
}

func buildApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	registry, err := style.NewRegistry(cfg.Styles.Default, cfg.Styles.Extra)
	if err != nil {
		return nil, err
	}

	rnd := rng.New(cfg.RandomSeed)
	sessions := session.NewStore(cfg.Session.HistoryLimit, cfg.Session.Timeout,
		session.WithDefaultStyle(registry.Default()))

	chat := llm.NewChatService(llm.ChatServiceConfig{
		Gateway:  newGateway(ctx, cfg, logger),
		Sessions: sessions,
		Styles:   registry,
		Timeout:  cfg.Completion.Timeout,
		Logger:   logger,
	})

	banList := moderation.NewBanList(cfg.Moderation.BanWords)
	autoReply := policy.NewAutoReply(cfg.AutoReply.Probability, cfg.AutoReply.Overrides)

	engine := policy.NewEngine(policy.Deps{
		Sessions:        sessions,
		Styles:          registry,
		Tracker:         moderation.NewTracker(rnd),
		BanList:         banList,
		Chat:            chat,
		Transport:       onebot.NewClient(cfg.OneBot, transport.NewHTTPClient(cfg.OneBot.Timeout)),
		AutoReply:       autoReply,
		Rand:            rnd,
		BaseBanDuration: cfg.Moderation.BaseDuration,
		Logger:          logger,
	})

	a := &app{}
	var wsHandler http.Handler
	if cfg.OneBot.ReverseWSEnabled {
		a.reverseWS = onebot.NewReverseWS(onebot.ReverseWSDeps{
			Handler:     engine,
			Logger:      logger,
			AccessToken: cfg.OneBot.AccessToken,
		})
		wsHandler = a.reverseWS
	}

	a.router = httpserver.NewRouter(httpserver.RouterDeps{
		Logger:    logger,
		Webhook:   onebot.NewWebhookHandler(onebot.WebhookDeps{Handler: engine, Logger: logger}),
		ReverseWS: wsHandler,
		Sessions:  sessions,
		Styles:    registry,
		AutoReply: autoReply,
	})

	logger.Info("components ready",
		slog.Int("styles", len(registry.Names())),
		slog.String("default_style", registry.Default()),
		slog.Int("ban_words", banList.Len()),
		slog.Int("history_limit", sessions.Limit()),
		slog.Bool("reverse_ws", cfg.OneBot.ReverseWSEnabled),
	)
	return a, nil
}

// newGateway выбирает бэкенд. Без ключа или при ошибке инициализации бот продолжает
// работать и отвечает извинением.
func newGateway(ctx context.Context, cfg config.Config, logger *slog.Logger) llm.Gateway {
	switch cfg.Completion.Backend {
	case config.BackendGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.Completion.Gemini)
		if err != nil {
			logger.Error("gemini backend unavailable", slog.String("error", err.Error()))
			return llm.Unavailable{}
		}
		logger.Info("completion backend", slog.String("backend", "gemini"), slog.String("model", cfg.Completion.Gemini.Model))
		return client
	default:
		if cfg.Completion.OpenAI.APIKey == "" {
			logger.Error("openai backend unavailable", slog.String("error", "OPENAI_API_KEY is not set"))
			return llm.Unavailable{}
		}
		logger.Info("completion backend", slog.String("backend", "openai"), slog.String("model", cfg.Completion.OpenAI.Model))
		return llm.NewOpenAIClient(cfg.Completion.OpenAI, transport.NewHTTPClient(cfg.Completion.Timeout), logger)
	}
}
