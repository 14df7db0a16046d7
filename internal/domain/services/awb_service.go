package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/athebyme/emag-console/internal/adapters/backend"
	"github.com/athebyme/emag-console/internal/adapters/messaging"
	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/athebyme/emag-console/internal/utils"
	"github.com/athebyme/emag-console/pkg/interfaces"
	pkgmodels "github.com/athebyme/emag-console/pkg/models"
	pkgutils "github.com/athebyme/emag-console/pkg/utils"
)

const (
	// DefaultOrdersPageSize - размер страницы заказов по умолчанию
	DefaultOrdersPageSize = 100
	// maxOrdersPageSize - верхняя граница размера страницы, которую принимает бэкенд
	maxOrdersPageSize = 100
)

// AWBConfig - параметры представления AWB
type AWBConfig struct {
	Account        pkgmodels.AccountType
	OrdersPageSize int
	EventsTopic    string
}

// AWBDeps - зависимости представления AWB
type AWBDeps struct {
	Backend   AWBBackend
	Notifier  Notifier
	Confirmer Confirmer
	Audit     interfaces.AuditPort
	Publisher interfaces.MessagingPort
}

// AWBView - копия состояния представления AWB
type AWBView struct {
	Account     pkgmodels.AccountType    `json:"account_type"`
	Orders      []models.Order           `json:"orders"`
	Couriers    []models.CourierAccount  `json:"couriers"`
	Stats       models.AWBStats          `json:"stats"`
	Pagination  *pkgutils.Pagination     `json:"pagination,omitempty"`
	FormOpen    bool                     `json:"form_open"`
	FormOrderID *int64                   `json:"form_order_id,omitempty"`
	LastTrack   *models.TrackingSnapshot `json:"last_track,omitempty"`
	LastBulk    *models.BulkAWBResult    `json:"last_bulk,omitempty"`
}

// GenerateRequest - параметры генерации одной накладной
type GenerateRequest struct {
	OrderID          int64               `json:"order_id"`
	CourierAccountID int64               `json:"courier_account_id"`
	Packages         []models.AWBPackage `json:"packages,omitempty"`
}

// AWBService - модель представления управления накладными
type AWBService struct {
	backend   AWBBackend
	notifier  Notifier
	confirmer Confirmer
	audit     auditRecorder
	events    eventSink
	logger    interfaces.LoggerPort
	pageSize  int

	mu    sync.Mutex
	state AWBView
}

// NewAWBService создает модель представления AWB
func NewAWBService(cfg AWBConfig, deps AWBDeps, logger interfaces.LoggerPort) *AWBService {
	pageSize := cfg.OrdersPageSize
	if pageSize <= 0 {
		pageSize = DefaultOrdersPageSize
	}
	if pageSize > maxOrdersPageSize {
		pageSize = maxOrdersPageSize
	}

	account := cfg.Account
	if account == "" {
		account = pkgmodels.AccountMain
	}

	log := logger.WithField("component", "awb_service")

	return &AWBService{
		backend:   deps.Backend,
		notifier:  deps.Notifier,
		confirmer: deps.Confirmer,
		audit:     auditRecorder{port: deps.Audit, logger: log},
		events:    eventSink{port: deps.Publisher, topic: cfg.EventsTopic, logger: log},
		logger:    log,
		pageSize:  pageSize,
		state:     AWBView{Account: account},
	}
}

// View возвращает копию состояния
func (s *AWBService) View() AWBView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.state
	v.Orders = append([]models.Order(nil), s.state.Orders...)
	v.Couriers = append([]models.CourierAccount(nil), s.state.Couriers...)
	if s.state.FormOrderID != nil {
		id := *s.state.FormOrderID
		v.FormOrderID = &id
	}
	return v
}

// Account возвращает текущий тип аккаунта представления
func (s *AWBService) Account() pkgmodels.AccountType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Account
}

// switchAccount меняет аккаунт; при смене сбрасываются данные другого профиля
func (s *AWBService) switchAccount(account pkgmodels.AccountType) pkgmodels.AccountType {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account == "" {
		return s.state.Account
	}
	if account != s.state.Account {
		s.state = AWBView{Account: account}
	}
	return account
}

// LoadCouriers загружает активные курьерские аккаунты.
// При ошибке прежний список сохраняется
func (s *AWBService) LoadCouriers(ctx context.Context, account pkgmodels.AccountType) error {
	account = s.switchAccount(account)

	couriers, err := s.backend.Couriers(ctx, account)
	if err != nil {
		s.logger.ErrorWithContext(ctx, "Ошибка загрузки курьерских аккаунтов",
			"account_type", account,
			"error", err)
		s.notifier.Notify(ctx, models.NotificationError, "Курьеры не загружены",
			describeError(err, "Не удалось загрузить курьерские аккаунты"))
		return fmt.Errorf("загрузка курьеров: %w", err)
	}

	active := make([]models.CourierAccount, 0, len(couriers))
	for _, c := range couriers {
		if c.IsActive {
			active = append(active, c)
		}
	}

	s.mu.Lock()
	if s.state.Account == account {
		s.state.Couriers = active
	}
	s.mu.Unlock()

	return nil
}

// LoadOrders загружает первую страницу заказов, готовых к генерации накладной, и пересчитывает счетчики
func (s *AWBService) LoadOrders(ctx context.Context, account pkgmodels.AccountType) error {
	account = s.switchAccount(account)

	orders, page, err := s.backend.Orders(ctx, backend.OrdersQuery{
		AccountType: account,
		Status:      models.OrderStatusPrepared,
		Page:        pkgutils.NewPagination(1, s.pageSize, maxOrdersPageSize),
	})
	if err != nil {
		s.logger.ErrorWithContext(ctx, "Ошибка загрузки заказов",
			"account_type", account,
			"error", err)
		s.notifier.Notify(ctx, models.NotificationError, "Заказы не загружены",
			describeError(err, "Не удалось загрузить заказы"))
		return fmt.Errorf("загрузка заказов: %w", err)
	}

	s.mu.Lock()
	if s.state.Account == account {
		s.state.Orders = orders
		s.state.Stats = models.CountAWBStats(orders)
		s.state.Pagination = page
	}
	s.mu.Unlock()

	return nil
}

// OpenForm открывает форму генерации для загруженного заказа
func (s *AWBService) OpenForm(orderID int64) error {
	if orderID <= 0 {
		return utils.ErrInvalidOrderID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Orders {
		if s.state.Orders[i].ID == orderID {
			s.state.FormOpen = true
			s.state.FormOrderID = &orderID
			return nil
		}
	}
	return utils.ErrOrderNotLoaded
}

// CloseForm закрывает форму генерации
func (s *AWBService) CloseForm() {
	s.mu.Lock()
	s.state.FormOpen = false
	s.state.FormOrderID = nil
	s.mu.Unlock()
}

// GenerateAWB генерирует накладную для одного заказа.
// Успех закрывает форму и перезагружает заказы
func (s *AWBService) GenerateAWB(ctx context.Context, req GenerateRequest) (string, error) {
	account := s.Account()
	target := strconv.FormatInt(req.OrderID, 10)

	awb, err := s.backend.GenerateAWB(ctx, req.OrderID, backend.GenerateAWBRequest{
		AccountType:      account,
		CourierAccountID: req.CourierAccountID,
		Packages:         req.Packages,
	})
	if err != nil {
		s.logger.ErrorWithContext(ctx, "Ошибка генерации AWB",
			"order_id", req.OrderID,
			"courier_account_id", req.CourierAccountID,
			"error", err)
		s.notifier.Notify(ctx, models.NotificationError, "AWB не сгенерирован",
			describeError(err, "Не удалось сгенерировать AWB"))
		s.audit.record(ctx, "awb_generate", account, target, false, map[string]string{"error": err.Error()})
		return "", fmt.Errorf("генерация AWB для заказа %d: %w", req.OrderID, err)
	}

	s.CloseForm()
	s.notifier.Notify(ctx, models.NotificationSuccess, "AWB сгенерирован",
		fmt.Sprintf("Заказ %d: накладная %s", req.OrderID, awb))
	s.audit.record(ctx, "awb_generate", account, target, true, map[string]string{"awb_number": awb})
	s.events.publish(ctx, messaging.AWBGeneratedEvent, account, map[string]interface{}{
		"order_id":           req.OrderID,
		"courier_account_id": req.CourierAccountID,
		"awb_number":         awb,
	})

	// Ошибка перезагрузки уже показана оператору
	_ = s.LoadOrders(ctx, account)

	return awb, nil
}

// BulkGenerateAWB генерирует накладные для всех подготовленных заказов без накладной одним запросом.
// confirmer может быть nil, тогда используется подтверждение из зависимостей
func (s *AWBService) BulkGenerateAWB(ctx context.Context, confirmer Confirmer) (*models.BulkAWBResult, error) {
	s.mu.Lock()
	account := s.state.Account
	eligible := make([]int64, 0, len(s.state.Orders))
	for i := range s.state.Orders {
		if s.state.Orders[i].ReadyForAWB() {
			eligible = append(eligible, s.state.Orders[i].ID)
		}
	}
	var courier *models.CourierAccount
	for i := range s.state.Couriers {
		if s.state.Couriers[i].IsActive {
			c := s.state.Couriers[i]
			courier = &c
			break
		}
	}
	s.mu.Unlock()

	if len(eligible) == 0 {
		s.notifier.Notify(ctx, models.NotificationWarning, "Нет заказов для генерации",
			"Все загруженные заказы уже имеют накладную или не готовы к отправке")
		return nil, utils.ErrNoEligibleOrders
	}

	if confirmer == nil {
		confirmer = s.confirmer
	}
	prompt := fmt.Sprintf("Сгенерировать AWB для %d заказов?", len(eligible))
	if confirmer == nil || !confirmer.Confirm(ctx, prompt) {
		s.logger.InfoWithContext(ctx, "Массовая генерация AWB отменена оператором", "orders", len(eligible))
		return nil, utils.ErrNotConfirmed
	}

	if courier == nil {
		s.notifier.Notify(ctx, models.NotificationWarning, "Нет активного курьера",
			"Для массовой генерации нужен хотя бы один активный курьерский аккаунт")
		return nil, utils.ErrNoActiveCourier
	}

	result, err := s.backend.BulkGenerateAWB(ctx, backend.BulkAWBRequest{
		AccountType:      account,
		CourierAccountID: courier.ID,
		Orders:           eligible,
	})
	if err != nil {
		s.logger.ErrorWithContext(ctx, "Ошибка массовой генерации AWB",
			"orders", len(eligible),
			"courier_account_id", courier.ID,
			"error", err)
		s.notifier.Notify(ctx, models.NotificationError, "Массовая генерация не выполнена",
			describeError(err, "Не удалось выполнить массовую генерацию AWB"))
		s.audit.record(ctx, "awb_bulk_generate", account, "", false, map[string]interface{}{
			"orders": eligible,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("массовая генерация AWB: %w", err)
	}

	level := models.NotificationSuccess
	if result.FailedCount > 0 {
		level = models.NotificationWarning
	}
	s.notifier.Notify(ctx, level, "Массовая генерация завершена",
		fmt.Sprintf("Успешно: %d, с ошибкой: %d", result.SuccessCount, result.FailedCount))

	s.mu.Lock()
	res := *result
	s.state.LastBulk = &res
	s.mu.Unlock()

	s.audit.record(ctx, "awb_bulk_generate", account, "", true, map[string]interface{}{
		"orders":             eligible,
		"courier_account_id": courier.ID,
		"success_count":      result.SuccessCount,
		"failed_count":       result.FailedCount,
	})
	s.events.publish(ctx, messaging.AWBBulkEvent, account, result)

	_ = s.LoadOrders(ctx, account)

	return result, nil
}

// TrackAWB возвращает снимок отслеживания; повторных запросов нет
func (s *AWBService) TrackAWB(ctx context.Context, awbNumber string) (*models.TrackingSnapshot, error) {
	account := s.Account()

	snapshot, err := s.backend.TrackAWB(ctx, awbNumber, account)
	if err != nil {
		if errors.Is(err, utils.ErrEmptyAWBNumber) {
			return nil, err
		}
		s.logger.ErrorWithContext(ctx, "Ошибка отслеживания AWB",
			"awb_number", awbNumber,
			"error", err)
		s.notifier.Notify(ctx, models.NotificationError, "Отслеживание недоступно",
			describeError(err, "Не удалось получить статус накладной"))
		return nil, fmt.Errorf("отслеживание AWB %s: %w", awbNumber, err)
	}

	s.mu.Lock()
	snap := *snapshot
	s.state.LastTrack = &snap
	s.mu.Unlock()

	return snapshot, nil
}
