package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"chatrelay/internal/config"
	"chatrelay/internal/session"
	"chatrelay/internal/transport"
)

var ErrInvalidModel = errors.New("model is required")

// OpenAIClient клиент OpenAI-совместимого API (/chat/completions).
// Делает ровно одну попытку, запасной ответ формирует вызывающий.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOpenAIClient(cfg config.OpenAIConfig, httpClient *http.Client, logger *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.model == "" {
		return "", ErrInvalidModel
	}

	messages := make([]message, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, message{Role: string(session.RoleSystem), Content: req.System})
	}
	for _, msg := range req.History {
		messages = append(messages, message{Role: string(msg.Role), Content: msg.Content})
	}
	messages = append(messages, message{Role: string(session.RoleUser), Content: req.Prompt})

	body := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Profile.Temperature,
		TopP:        req.Profile.TopP,
		MaxTokens:   req.Profile.MaxTokens,
	}

	headers := http.Header{}
	if c.apiKey != "" {
		headers.Set("Authorization", "Bearer "+c.apiKey)
	}

	raw, err := transport.PostJSON(ctx, c.httpClient, c.baseURL+"/chat/completions", headers, body)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("completion request failed",
				slog.String("reason", transport.Reason(err)),
				slog.String("error", err.Error()))
		}
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", errors.New("empty response from model")
	}
	return parsed.Choices[0].Message.Content, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}
