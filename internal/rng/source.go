package rng

import (
	"math/rand"
	"sync"
	"time"
)

// Source источник случайных чисел, который можно разделять между горутинами.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Locked оборачивает *rand.Rand мьютексом: сам rand.Rand не потокобезопасен.
type Locked struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New создаёт источник с заданным seed. seed == 0 означает seed от текущего времени.
func New(seed int64) *Locked {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Locked{rnd: rand.New(rand.NewSource(seed))}
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

// Intn возвращает число в [0, n). При n <= 0 возвращает 0 вместо panic.
func (l *Locked) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Intn(n)
}

// Fixed детерминированный источник для тестов: Float64 всегда возвращает F,
// Intn возвращает I, ограниченный сверху n-1.
type Fixed struct {
	F float64
	I int
}

func (f Fixed) Float64() float64 { return f.F }

func (f Fixed) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	if f.I >= n {
		return n - 1
	}
	if f.I < 0 {
		return 0
	}
	return f.I
}
