package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatrelay/internal/config"
	"chatrelay/internal/session"
	"chatrelay/internal/transport"
)

func TestOpenAIClient_Complete_Success(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %s", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"pong"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(config.OpenAIConfig{
		APIKey:  "sk-test",
		BaseURL: server.URL + "/v1/",
		Model:   "deepseek-v3",
	}, transport.NewHTTPClient(time.Second), nil)

	answer, err := client.Complete(context.Background(), Request{
		System: "persona",
		History: []session.Message{
			{Role: session.RoleUser, Content: "a"},
			{Role: session.RoleAssistant, Content: "b"},
		},
		Prompt:  "ping",
		Profile: ProfileAutoReply,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "pong" {
		t.Errorf("expected 'pong', got: %s", answer)
	}

	if captured.Model != "deepseek-v3" {
		t.Errorf("unexpected model: %s", captured.Model)
	}
	if len(captured.Messages) != 4 {
		t.Fatalf("expected 4 messages (system + 2 history + prompt), got: %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || captured.Messages[3].Content != "ping" {
		t.Errorf("unexpected message order: %+v", captured.Messages)
	}
	if captured.Temperature != 1.0 || captured.TopP != 0.95 || captured.MaxTokens != 150 {
		t.Errorf("unexpected sampling params: %+v", captured)
	}
}

func TestOpenAIClient_Complete_StatusError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewOpenAIClient(config.OpenAIConfig{BaseURL: server.URL, Model: "m"}, transport.NewHTTPClient(time.Second), nil)

	_, err := client.Complete(context.Background(), Request{Prompt: "x"})
	var statusErr *transport.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected single attempt, got: %d", calls)
	}
}

func TestOpenAIClient_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(config.OpenAIConfig{BaseURL: server.URL, Model: "m"}, transport.NewHTTPClient(time.Second), nil)
	if _, err := client.Complete(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestOpenAIClient_Complete_RequiresModel(t *testing.T) {
	client := NewOpenAIClient(config.OpenAIConfig{BaseURL: "http://unused"}, http.DefaultClient, nil)
	if _, err := client.Complete(context.Background(), Request{Prompt: "x"}); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel, got: %v", err)
	}
}

func TestGeminiContents_MapsRoles(t *testing.T) {
	contents := geminiContents(Request{
		History: []session.Message{
			{Role: session.RoleUser, Content: "a"},
			{Role: session.RoleSystem, Content: "skip"},
			{Role: session.RoleAssistant, Content: "b"},
		},
		Prompt: "c",
	})
	if len(contents) != 3 {
		t.Fatalf("expected 3 contents, got: %d", len(contents))
	}
	wantRoles := []string{"user", "model", "user"}
	for i, c := range contents {
		if c.Role != wantRoles[i] {
			t.Errorf("content %d: expected role %s, got %s", i, wantRoles[i], c.Role)
		}
	}
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Complete(context.Background(), Request{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got: %v", err)
	}
}
