package services

import (
	"context"
	"sync"
	"time"

	"github.com/athebyme/emag-console/internal/adapters/messaging"
	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/athebyme/emag-console/pkg/interfaces"
	"github.com/google/uuid"
)

// DefaultFeedSize - сколько уведомлений хранится по умолчанию
const DefaultFeedSize = 100

// NotificationFeed - ограниченная лента уведомлений оператора, новые первыми.
// Каждое уведомление дополнительно пишется в лог и, если задан издатель, в Kafka
type NotificationFeed struct {
	mu    sync.Mutex
	items []models.Notification
	size  int

	publisher interfaces.MessagingPort
	topic     string
	logger    interfaces.LoggerPort
	metrics   Metrics
	now       func() time.Time
}

// NotificationFeedConfig - параметры ленты
type NotificationFeedConfig struct {
	Size      int
	Publisher interfaces.MessagingPort
	Topic     string
	Metrics   Metrics
}

// NewNotificationFeed создает ленту уведомлений
func NewNotificationFeed(cfg NotificationFeedConfig, logger interfaces.LoggerPort) *NotificationFeed {
	if cfg.Size <= 0 {
		cfg.Size = DefaultFeedSize
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}

	return &NotificationFeed{
		size:      cfg.Size,
		publisher: cfg.Publisher,
		topic:     cfg.Topic,
		logger:    logger.WithField("component", "notifications"),
		metrics:   cfg.Metrics,
		now:       time.Now,
	}
}

// Notify добавляет уведомление в ленту
func (f *NotificationFeed) Notify(ctx context.Context, level models.NotificationLevel, title, message string) {
	n := models.Notification{
		ID:        uuid.New().String(),
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: f.now().UTC(),
	}

	f.mu.Lock()
	f.items = append([]models.Notification{n}, f.items...)
	if len(f.items) > f.size {
		f.items = f.items[:f.size]
	}
	f.mu.Unlock()

	f.metrics.Notification(level)

	switch level {
	case models.NotificationError:
		f.logger.ErrorWithContext(ctx, title, "message", message)
	case models.NotificationWarning:
		f.logger.WarnWithContext(ctx, title, "message", message)
	default:
		f.logger.InfoWithContext(ctx, title, "message", message)
	}

	if f.publisher == nil {
		return
	}

	msg, err := messaging.NewMessage(f.topic, messaging.NotificationEvent, "", n)
	if err != nil {
		f.logger.Warn("Не удалось подготовить событие уведомления", "error", err)
		return
	}
	if err := f.publisher.Publish(context.WithoutCancel(ctx), msg); err != nil {
		f.logger.Warn("Не удалось опубликовать уведомление", "error", err)
	}
}

// List возвращает до limit последних уведомлений; limit <= 0 - все
func (f *NotificationFeed) List(limit int) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limit <= 0 || limit > len(f.items) {
		limit = len(f.items)
	}
	out := make([]models.Notification, limit)
	copy(out, f.items[:limit])
	return out
}

// Clear очищает ленту
func (f *NotificationFeed) Clear() {
	f.mu.Lock()
	f.items = nil
	f.mu.Unlock()
}
