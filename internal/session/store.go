package session

import (
	"sync"
	"time"

	"chatrelay/internal/style"
)

const (
	DefaultHistoryLimit = 36
	DefaultTimeout      = 15 * time.Minute
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message одно сообщение истории.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session снимок состояния сессии на момент вызова.
type Session struct {
	ID           string
	History      []Message
	LastActiveAt time.Time // нулевое значение: отметки нет
	Style        string
}

// Summary краткая сводка для интроспекции.
type Summary struct {
	Length       int
	LastMessage  string
	HasMessages  bool
	LastActiveAt time.Time
}

type entry struct {
	mu         sync.Mutex
	history    *ring
	lastActive time.Time
}

// Store in-memory хранилище сессий.
// Карта защищена общим мьютексом, каждая сессия своим, поэтому
// последовательность «проверка таймаута -> чтение/запись истории» атомарна в пределах одной сессии.
type Store struct {
	mu           sync.RWMutex
	sessions     map[string]*entry
	styles       map[string]string
	limit        int
	timeout      time.Duration
	defaultStyle string
	now          func() time.Time
}

type Option func(*Store)

// WithClock подменяет часы (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithDefaultStyle задаёт стиль, который возвращается для сессий без явного выбора.
// Пустое имя оставляет abusive.
func WithDefaultStyle(name string) Option {
	return func(s *Store) {
		s.defaultStyle = name
	}
}

// NewStore создаёт хранилище.
// limit задаёт максимальную длину истории, timeout задаёт простой, после которого история сбрасывается.
// timeout <= 0 означает, что сессии не истекают.
func NewStore(limit int, timeout time.Duration, opts ...Option) *Store {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s := &Store{
		sessions:     make(map[string]*entry),
		styles:       make(map[string]string),
		limit:        limit,
		timeout:      timeout,
		now:          time.Now,
		defaultStyle: style.StyleAbusive,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultStyle == "" {
		s.defaultStyle = style.StyleAbusive
	}
	return s
}

// Limit возвращает ёмкость истории.
func (s *Store) Limit() int {
	return s.limit
}

func (s *Store) lookup(id string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *Store) getOrCreate(id string) *entry {
	if e := s.lookup(id); e != nil {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[id]; ok {
		return e
	}
	e := &entry{history: newRing(s.limit)}
	s.sessions[id] = e
	return e
}

// GetOrCreate возвращает снимок сессии, создавая пустую при первом обращении.
func (s *Store) GetOrCreate(id string) Session {
	e := s.getOrCreate(id)

	e.mu.Lock()
	history := e.history.items()
	lastActive := e.lastActive
	e.mu.Unlock()

	return Session{
		ID:           id,
		History:      history,
		LastActiveAt: lastActive,
		Style:        s.Style(id),
	}
}

// Append добавляет сообщения в историю; при заполнении вытесняются самые старые.
// Все сообщения одного вызова добавляются под одной блокировкой.
func (s *Store) Append(id string, messages ...Message) {
	if len(messages) == 0 {
		return
	}
	e := s.getOrCreate(id)
	now := s.now()

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, msg := range messages {
		if msg.Timestamp.IsZero() {
			msg.Timestamp = now
		}
		e.history.push(msg)
	}
}

// TouchAndMaybeExpire обновляет время активности.
// Если с прошлой активности прошло больше timeout, история и отметка времени сбрасываются
// до обновления (стиль не трогается). Возвращает true, если был сброс.
func (s *Store) TouchAndMaybeExpire(id string, now time.Time) bool {
	e := s.getOrCreate(id)

	e.mu.Lock()
	defer e.mu.Unlock()
	return s.touchLocked(e, now)
}

// Begin выполняет TouchAndMaybeExpire и возвращает копию истории в одной критической секции.
func (s *Store) Begin(id string, now time.Time) ([]Message, bool) {
	e := s.getOrCreate(id)

	e.mu.Lock()
	defer e.mu.Unlock()
	expired := s.touchLocked(e, now)
	return e.history.items(), expired
}

func (s *Store) touchLocked(e *entry, now time.Time) bool {
	expired := false
	if s.timeout > 0 && !e.lastActive.IsZero() && now.Sub(e.lastActive) > s.timeout {
		e.history.reset()
		e.lastActive = time.Time{}
		expired = true
	}
	e.lastActive = now
	return expired
}

// Clear очищает историю и отметку времени. Стиль сохраняется. Для неизвестного id ничего не делает.
func (s *Store) Clear(id string) {
	e := s.lookup(id)
	if e == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.reset()
	e.lastActive = time.Time{}
}

// History возвращает копию истории (пустую для неизвестного id).
func (s *Store) History(id string) []Message {
	e := s.lookup(id)
	if e == nil {
		return []Message{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.items()
}

// Info возвращает сводку по одной сессии, не создавая её.
func (s *Store) Info(id string) Summary {
	e := s.lookup(id)
	if e == nil {
		return Summary{}
	}
	return summarize(e)
}

// SnapshotAll возвращает сводку по всем известным сессиям.
func (s *Store) SnapshotAll() map[string]Summary {
	s.mu.RLock()
	entries := make(map[string]*entry, len(s.sessions))
	for id, e := range s.sessions {
		entries[id] = e
	}
	s.mu.RUnlock()

	out := make(map[string]Summary, len(entries))
	for id, e := range entries {
		out[id] = summarize(e)
	}
	return out
}

func summarize(e *entry) Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	sum := Summary{
		Length:       e.history.len(),
		LastActiveAt: e.lastActive,
	}
	if last, ok := e.history.last(); ok {
		sum.LastMessage = last.Content
		sum.HasMessages = true
	}
	return sum
}

// Style возвращает выбранный стиль сессии или стиль по умолчанию.
func (s *Store) Style(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name, ok := s.styles[id]; ok {
		return name
	}
	return s.defaultStyle
}

// SetStyle назначает стиль. Имя проверяет вызывающий.
func (s *Store) SetStyle(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.styles[id] = name
}

// Styles возвращает копию явно назначенных стилей.
func (s *Store) Styles() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.styles))
	for id, name := range s.styles {
		out[id] = name
	}
	return out
}
