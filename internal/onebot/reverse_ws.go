package onebot

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chatrelay/internal/httpserver"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

type ReverseWSDeps struct {
	Handler     Handler
	Logger      *slog.Logger
	AccessToken string
}

// ReverseWS приём событий по обратному WebSocket: реализация OneBot сама подключается к боту.
// Каждое событие обрабатывается в своей горутине, чтобы долгий вызов модели не блокировал чтение.
type ReverseWS struct {
	handler     Handler
	logger      *slog.Logger
	accessToken string
	upgrader    websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

func NewReverseWS(deps ReverseWSDeps) *ReverseWS {
	ctx, cancel := context.WithCancel(context.Background())
	return &ReverseWS{
		handler:     deps.Handler,
		logger:      deps.Logger,
		accessToken: deps.AccessToken,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

func (s *ReverseWS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		httpserver.WriteJSONError(w, http.StatusUnauthorized, "invalid access token")
		return
	}
	if s.isClosed() {
		httpserver.WriteJSONError(w, http.StatusServiceUnavailable, "shutting down")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	if !s.register(conn) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	s.logger.Info("reverse websocket connected",
		slog.String("remote", r.RemoteAddr),
		slog.String("self_id", r.Header.Get("X-Self-ID")))

	go s.serveConn(conn)
}

// Connections количество живых подключений.
func (s *ReverseWS) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close закрывает все подключения, отменяет обработку событий и ждёт завершения горутин.
func (s *ReverseWS) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.cancel()
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		c.Close()
	}
	s.wg.Wait()
}

func (s *ReverseWS) authorized(r *http.Request) bool {
	if s.accessToken == "" {
		return true
	}
	if token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "); token == s.accessToken {
		return true
	}
	return r.URL.Query().Get("access_token") == s.accessToken
}

func (s *ReverseWS) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *ReverseWS) register(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *ReverseWS) unregister(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *ReverseWS) serveConn(conn *websocket.Conn) {
	defer s.wg.Done()
	defer s.unregister(conn)

	done := make(chan struct{})
	defer close(done)
	s.wg.Add(1)
	go s.pingLoop(conn, done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("reverse websocket read failed", slog.String("error", err.Error()))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if msgType != websocket.TextMessage {
			continue
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			s.logger.Warn("cannot decode websocket frame", slog.String("error", err.Error()))
			continue
		}
		if ev.IsAPIResponse() {
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := dispatch(s.ctx, s.handler, ev); err != nil {
				s.logger.Error("event handling failed",
					slog.String("conversation_id", ev.ConversationID()),
					slog.String("error", err.Error()))
			}
		}()
	}
}

func (s *ReverseWS) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
