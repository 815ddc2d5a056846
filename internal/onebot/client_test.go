package onebot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/config"
	"chatrelay/internal/transport"
)

type capturedCall struct {
	path string
	auth string
	body map[string]any
}

func newOneBotServer(t *testing.T, response string, calls *[]capturedCall) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		*calls = append(*calls, capturedCall{path: r.URL.Path, auth: r.Header.Get("Authorization"), body: body})
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_Send(t *testing.T) {
	var calls []capturedCall
	srv := newOneBotServer(t, `{"status":"ok","retcode":0}`, &calls)

	client := NewClient(config.OneBotConfig{BaseURL: srv.URL + "/", AccessToken: "secret"}, transport.NewHTTPClient(time.Second))
	ctx := context.Background()

	require.NoError(t, client.SendGroup(ctx, 42, "hello"))
	require.NoError(t, client.SendPrivate(ctx, 7, "hi"))
	require.NoError(t, client.Ban(ctx, 42, 7, 90*time.Second))

	require.Len(t, calls, 3)
	assert.Equal(t, "/send_group_msg", calls[0].path)
	assert.Equal(t, "Bearer secret", calls[0].auth)
	assert.Equal(t, float64(42), calls[0].body["group_id"])
	assert.Equal(t, "hello", calls[0].body["message"])

	assert.Equal(t, "/send_private_msg", calls[1].path)
	assert.Equal(t, float64(7), calls[1].body["user_id"])

	assert.Equal(t, "/set_group_ban", calls[2].path)
	assert.Equal(t, float64(90), calls[2].body["duration"])
}

func TestHTTPClient_NoTokenNoHeader(t *testing.T) {
	var calls []capturedCall
	srv := newOneBotServer(t, ``, &calls)

	client := NewClient(config.OneBotConfig{BaseURL: srv.URL}, transport.NewHTTPClient(time.Second))
	require.NoError(t, client.SendGroup(context.Background(), 1, "x"))
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].auth)
}

func TestHTTPClient_FailedStatus(t *testing.T) {
	var calls []capturedCall
	srv := newOneBotServer(t, `{"status":"failed","retcode":102,"message":"no permission"}`, &calls)

	client := NewClient(config.OneBotConfig{BaseURL: srv.URL}, transport.NewHTTPClient(time.Second))
	err := client.Ban(context.Background(), 42, 7, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no permission")
}

func TestHTTPClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(config.OneBotConfig{BaseURL: srv.URL}, transport.NewHTTPClient(time.Second))
	err := client.SendPrivate(context.Background(), 7, "x")
	require.Error(t, err)
	assert.Equal(t, "upstream 5xx", transport.Reason(err))
}

func TestHTTPClient_SendSucceedsOnHTTP200WithoutStatus(t *testing.T) {
	var calls []capturedCall
	srv := newOneBotServer(t, `{"retcode":0,"data":{"message_id":1}}`, &calls)

	client := NewClient(config.OneBotConfig{BaseURL: srv.URL}, transport.NewHTTPClient(time.Second))
	ctx := context.Background()

	require.NoError(t, client.SendGroup(ctx, 42, "hello"))
	require.NoError(t, client.SendPrivate(ctx, 7, "hi"))
	require.Len(t, calls, 2)

	err := client.Ban(ctx, 42, 7, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set_group_ban")
}

func TestHTTPClient_SendIgnoresFailedStatusBody(t *testing.T) {
	var calls []capturedCall
	srv := newOneBotServer(t, `{"status":"failed","retcode":100}`, &calls)

	client := NewClient(config.OneBotConfig{BaseURL: srv.URL}, transport.NewHTTPClient(time.Second))
	require.NoError(t, client.SendGroup(context.Background(), 1, "x"))
}
