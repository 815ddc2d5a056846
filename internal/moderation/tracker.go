package moderation

import (
	"sync"
	"time"

	"chatrelay/internal/rng"
)

// Tracker считает нарушения по пользователям за время жизни процесса.
// Счётчик только растёт: амнистии нет.
type Tracker struct {
	mu     sync.Mutex
	counts map[int64]int
	rnd    rng.Source
}

// NewTracker создаёт трекер. rnd используется для выбора длительности наказания.
func NewTracker(rnd rng.Source) *Tracker {
	if rnd == nil {
		rnd = rng.New(0)
	}
	return &Tracker{
		counts: make(map[int64]int),
		rnd:    rnd,
	}
}

// RecordViolation увеличивает счётчик и возвращает новое значение (первое нарушение даёт 1).
func (t *Tracker) RecordViolation(userID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[userID]++
	return t.counts[userID]
}

// Count возвращает текущее число нарушений (0 для пользователя без нарушений).
func (t *Tracker) Count(userID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[userID]
}

// ComputeDuration возвращает случайную длительность в целых секундах из [1, base*n],
// где n равно числу нарушений пользователя (не меньше 1).
func (t *Tracker) ComputeDuration(userID int64, base time.Duration) time.Duration {
	baseSeconds := int(base / time.Second)
	if baseSeconds < 1 {
		baseSeconds = 1
	}
	factor := t.Count(userID)
	if factor < 1 {
		factor = 1
	}
	ceiling := baseSeconds * factor
	return time.Duration(1+t.rnd.Intn(ceiling)) * time.Second
}
