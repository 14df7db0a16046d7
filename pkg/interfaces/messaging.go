package interfaces

import (
	"context"
	"time"
)

// Message представляет событие консоли, отправляемое во внешнюю шину
type Message struct {
	ID          string            `json:"id"`
	Topic       string            `json:"topic"`
	Key         string            `json:"key"`
	Value       []byte            `json:"value"`
	Headers     map[string]string `json:"headers"`
	PublishedAt time.Time         `json:"published_at"`
}

// MessagingPort - издатель событий (уведомления, запуски синхронизаций)
type MessagingPort interface {
	// Publish публикует сообщение в указанную тему
	Publish(ctx context.Context, msg *Message) error

	Close() error
}
