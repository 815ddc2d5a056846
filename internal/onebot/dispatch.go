package onebot

import (
	"context"
	"fmt"
)

// Handler обработчик входящих событий (policy.Engine).
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc адаптер функции к Handler.
type HandlerFunc func(ctx context.Context, ev Event) error

func (f HandlerFunc) Handle(ctx context.Context, ev Event) error { return f(ctx, ev) }

// dispatch вызывает обработчик и превращает panic в ошибку.
func dispatch(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in event handler: %v", rec)
		}
	}()
	return h.Handle(ctx, ev)
}
