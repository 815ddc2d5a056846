package llm

import (
	"context"
	"errors"

	"chatrelay/internal/session"
)

// ErrUnavailable бэкенд не сконфигурирован или не инициализирован.
var ErrUnavailable = errors.New("completion backend unavailable")

// Gateway минимальный интерфейс бэкенда генерации ответов.
type Gateway interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request один запрос генерации.
type Request struct {
	System  string            // системный промпт персоны, первым ходом
	History []session.Message // предыдущие ходы в порядке добавления
	Prompt  string            // новое сообщение пользователя
	Profile Profile
}

// Unavailable заглушка на случай, когда бэкенд не настроен.
type Unavailable struct{}

func (Unavailable) Complete(ctx context.Context, req Request) (string, error) {
	return "", ErrUnavailable
}
