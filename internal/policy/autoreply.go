package policy

import (
	"math"
	"sync"
)

// DefaultAutoReplyProbability вероятность случайной реплики, если для беседы не задана своя.
const DefaultAutoReplyProbability = 0.05

// AutoReply таблица вероятностей авто-ответа по беседам. Значения зажаты в [0, 1].
type AutoReply struct {
	mu        sync.RWMutex
	def       float64
	overrides map[string]float64
}

func NewAutoReply(def float64, overrides map[string]float64) *AutoReply {
	a := &AutoReply{
		def:       clamp(def),
		overrides: make(map[string]float64, len(overrides)),
	}
	for id, p := range overrides {
		a.overrides[id] = clamp(p)
	}
	return a
}

// Default общая вероятность.
func (a *AutoReply) Default() float64 {
	return a.def
}

// Probability вероятность для беседы.
func (a *AutoReply) Probability(conversationID string) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if p, ok := a.overrides[conversationID]; ok {
		return p
	}
	return a.def
}

// Set задаёт вероятность для беседы и возвращает сохранённое значение.
func (a *AutoReply) Set(conversationID string, p float64) float64 {
	p = clamp(p)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.overrides[conversationID] = p
	return p
}

func clamp(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
