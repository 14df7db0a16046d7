package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/athebyme/emag-console/pkg/interfaces"
	"github.com/google/uuid"
)

type KafkaEvent = string

const (
	NotificationEvent  = "console_notification"
	AWBGeneratedEvent  = "awb_generated"
	AWBBulkEvent       = "awb_bulk_generated"
	SyncTriggeredEvent = "sync_triggered"
	SyncFinishedEvent  = "sync_finished"
)

// Event - событие консоли, публикуемое во внешнюю шину
type Event struct {
	Type        KafkaEvent      `json:"type"`
	AccountType string          `json:"account_type,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// NewMessage упаковывает событие в сообщение для указанной темы.
// Ключ сообщения - тип аккаунта, чтобы события одного профиля шли в одну партицию
func NewMessage(topic string, eventType KafkaEvent, accountType string, payload interface{}) (*interfaces.Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации события %s: %w", eventType, err)
	}

	now := time.Now().UTC()
	value, err := json.Marshal(Event{
		Type:        eventType,
		AccountType: accountType,
		Payload:     raw,
		OccurredAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации события %s: %w", eventType, err)
	}

	return &interfaces.Message{
		ID:          uuid.New().String(),
		Topic:       topic,
		Key:         accountType,
		Value:       value,
		Headers:     map[string]string{"event_type": eventType},
		PublishedAt: now,
	}, nil
}
