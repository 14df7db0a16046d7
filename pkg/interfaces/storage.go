package interfaces

import (
	"context"
	"encoding/json"
	"time"
)

// AuditEntry - запись журнала команд оператора
type AuditEntry struct {
	ID          string          `json:"id"`
	Command     string          `json:"command"`
	AccountType string          `json:"account_type"`
	Target      string          `json:"target,omitempty"`
	Success     bool            `json:"success"`
	Details     json.RawMessage `json:"details,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AuditPort определяет интерфейс журнала команд, отправленных в бэкенд.
// Журнал не хранит состояние заказов или синхронизаций, только факт команды
type AuditPort interface {
	// Record сохраняет запись журнала
	Record(ctx context.Context, entry *AuditEntry) error

	// Recent возвращает последние записи, новые первыми
	Recent(ctx context.Context, limit int) ([]*AuditEntry, error)

	// Close закрывает соединение с хранилищем
	Close() error
}
