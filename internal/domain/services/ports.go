package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/athebyme/emag-console/internal/adapters/backend"
	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/athebyme/emag-console/pkg/interfaces"
	pkgmodels "github.com/athebyme/emag-console/pkg/models"
	pkgutils "github.com/athebyme/emag-console/pkg/utils"
)

// AWBBackend - вызовы бэкенда, нужные представлению AWB
type AWBBackend interface {
	Couriers(ctx context.Context, account pkgmodels.AccountType) ([]models.CourierAccount, error)
	Orders(ctx context.Context, q backend.OrdersQuery) ([]models.Order, *pkgutils.Pagination, error)
	GenerateAWB(ctx context.Context, orderID int64, req backend.GenerateAWBRequest) (string, error)
	BulkGenerateAWB(ctx context.Context, req backend.BulkAWBRequest) (*models.BulkAWBResult, error)
	TrackAWB(ctx context.Context, awbNumber string, account pkgmodels.AccountType) (*models.TrackingSnapshot, error)
}

// SyncBackend - вызовы бэкенда, нужные мониторингу синхронизации
type SyncBackend interface {
	Products(ctx context.Context, q models.ProductQuery) ([]models.ProductRecord, int, error)
	OfferCount(ctx context.Context, q models.ProductQuery) (int, error)
	SyncProgress(ctx context.Context) (*models.SyncProgress, error)
	SyncStatus(ctx context.Context, account pkgmodels.AccountType) (*backend.SyncStatusReport, error)
	TriggerSync(ctx context.Context, kind models.SyncKind, opts models.SyncOptions) error
	ExportSync(ctx context.Context, syncID string, account pkgmodels.AccountType) ([]byte, error)
	Health(ctx context.Context) error
}

// Notifier показывает уведомление оператору
type Notifier interface {
	Notify(ctx context.Context, level models.NotificationLevel, title, message string)
}

// Confirmer запрашивает подтверждение оператора перед необратимой командой
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc адаптирует функцию к Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Metrics - счетчики, которые обновляют представления
type Metrics interface {
	PollTick(loop string)
	SetHealth(status models.HealthStatus)
	Notification(level models.NotificationLevel)
	SyncTriggered(kind models.SyncKind, ok bool)
}

type nopMetrics struct{}

func (nopMetrics) PollTick(string) {}
func (nopMetrics) SetHealth(models.HealthStatus) {}
func (nopMetrics) Notification(models.NotificationLevel) {}
func (nopMetrics) SyncTriggered(models.SyncKind, bool) {}

// auditRecorder пишет журнал команд; отсутствие журнала и его ошибки не влияют на команду
type auditRecorder struct {
	port   interfaces.AuditPort
	logger interfaces.LoggerPort
}

func (a auditRecorder) record(ctx context.Context, command string, account pkgmodels.AccountType, target string, success bool, details interface{}) {
	if a.port == nil {
		return
	}

	entry := &interfaces.AuditEntry{
		Command:     command,
		AccountType: account.String(),
		Target:      target,
		Success:     success,
		CreatedAt:   time.Now().UTC(),
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = raw
		}
	}

	if err := a.port.Record(ctx, entry); err != nil {
		a.logger.WarnWithContext(ctx, "Не удалось записать команду в журнал",
			"command", command,
			"error", err)
	}
}
