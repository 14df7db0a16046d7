package services

import (
	"context"

	"github.com/athebyme/emag-console/internal/adapters/backend"
	"github.com/athebyme/emag-console/internal/adapters/messaging"
	"github.com/athebyme/emag-console/pkg/interfaces"
	pkgmodels "github.com/athebyme/emag-console/pkg/models"
)

// describeError подбирает текст уведомления по классу ошибки бэкенда
func describeError(err error, fallback string) string {
	switch backend.KindOf(err) {
	case backend.KindNetwork:
		return "Бэкенд интеграции недоступен, проверьте соединение"
	case backend.KindRateLimit:
		return "Превышен лимит запросов eMAG, повторите позже"
	case backend.KindValidation:
		if msg := backend.MessageOf(err); msg != "" {
			return msg
		}
	case backend.KindServer:
		if msg := backend.MessageOf(err); msg != "" {
			return fallback + ": " + msg
		}
	}
	return fallback
}

// eventSink публикует события консоли во внешнюю шину, если она настроена
type eventSink struct {
	port   interfaces.MessagingPort
	topic  string
	logger interfaces.LoggerPort
}

func (e eventSink) publish(ctx context.Context, eventType messaging.KafkaEvent, account pkgmodels.AccountType, payload interface{}) {
	if e.port == nil {
		return
	}

	msg, err := messaging.NewMessage(e.topic, eventType, account.String(), payload)
	if err != nil {
		e.logger.Warn("Не удалось подготовить событие", "event", eventType, "error", err)
		return
	}
	if err := e.port.Publish(context.WithoutCancel(ctx), msg); err != nil {
		e.logger.Warn("Не удалось опубликовать событие", "event", eventType, "error", err)
	}
}
