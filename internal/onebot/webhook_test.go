package onebot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestWebhook_DispatchesEvent(t *testing.T) {
	var got []Event
	handler := NewWebhookHandler(WebhookDeps{
		Handler: HandlerFunc(func(ctx context.Context, ev Event) error {
			got = append(got, ev)
			return nil
		}),
		Logger: newTestLogger(),
	})

	body := `{"post_type":"message","message_type":"private","user_id":7,"self_id":100,"message":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %v", resp)
	}
	if len(got) != 1 || got[0].ConversationID() != "private_7" {
		t.Fatalf("expected one private event, got %+v", got)
	}
}

func TestWebhook_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		handler HandlerFunc
	}{
		{
			name:    "bad json",
			body:    `{not json`,
			handler: func(ctx context.Context, ev Event) error { return nil },
		},
		{
			name:    "handler error",
			body:    `{"post_type":"message"}`,
			handler: func(ctx context.Context, ev Event) error { return errors.New("boom") },
		},
		{
			name:    "handler panic",
			body:    `{"post_type":"message"}`,
			handler: func(ctx context.Context, ev Event) error { panic("boom") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewWebhookHandler(WebhookDeps{Handler: tt.handler, Logger: newTestLogger()})

			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(tt.body)))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("expected status 500, got %d", rr.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("expected JSON body: %v", err)
			}
			if resp["status"] != "error" || resp["message"] == "" {
				t.Errorf("unexpected error payload: %v", resp)
			}
		})
	}
}
