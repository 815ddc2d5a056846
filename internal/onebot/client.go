package onebot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chatrelay/internal/config"
	"chatrelay/internal/transport"
)

// Client исходящие действия в чат.
type Client interface {
	SendGroup(ctx context.Context, groupID int64, text string) error
	SendPrivate(ctx context.Context, userID int64, text string) error
	Ban(ctx context.Context, groupID, userID int64, duration time.Duration) error
}

// HTTPClient OneBot HTTP API. Одна попытка на вызов.
type HTTPClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewClient(cfg config.OneBotConfig, httpClient *http.Client) *HTTPClient {
	return &HTTPClient{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient:  httpClient,
	}
}

type sendGroupRequest struct {
	GroupID int64  `json:"group_id"`
	Message string `json:"message"`
}

type sendPrivateRequest struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

type setGroupBanRequest struct {
	GroupID  int64 `json:"group_id"`
	UserID   int64 `json:"user_id"`
	Duration int64 `json:"duration"`
}

type apiResponse struct {
	Status  string `json:"status"`
	Retcode int    `json:"retcode"`
	Message string `json:"message"`
}

func (c *HTTPClient) SendGroup(ctx context.Context, groupID int64, text string) error {
	_, err := c.call(ctx, "send_group_msg", sendGroupRequest{GroupID: groupID, Message: text})
	return err
}

func (c *HTTPClient) SendPrivate(ctx context.Context, userID int64, text string) error {
	_, err := c.call(ctx, "send_private_msg", sendPrivateRequest{UserID: userID, Message: text})
	return err
}

// Ban заглушает участника группы; длительность округляется вниз до секунд.
// Непустой ответ должен содержать status "ok".
func (c *HTTPClient) Ban(ctx context.Context, groupID, userID int64, duration time.Duration) error {
	const action = "set_group_ban"
	body, err := c.call(ctx, action, setGroupBanRequest{
		GroupID:  groupID,
		UserID:   userID,
		Duration: int64(duration / time.Second),
	})
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode onebot %s response: %w", action, err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("onebot %s failed: status=%q retcode=%d %s", action, resp.Status, resp.Retcode, resp.Message)
	}
	return nil
}

// call выполняет действие; любой 2xx считается доставкой, тело возвращается как есть.
func (c *HTTPClient) call(ctx context.Context, action string, payload any) ([]byte, error) {
	headers := http.Header{}
	if c.accessToken != "" {
		headers.Set("Authorization", "Bearer "+c.accessToken)
	}

	body, err := transport.PostJSON(ctx, c.httpClient, c.baseURL+"/"+action, headers, payload)
	if err != nil {
		return nil, fmt.Errorf("onebot %s: %w", action, err)
	}
	return body, nil
}
