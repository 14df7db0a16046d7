package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/athebyme/emag-console/internal/domain/services"
	"github.com/athebyme/emag-console/internal/utils"
	"github.com/athebyme/emag-console/pkg/interfaces"
	pkgmodels "github.com/athebyme/emag-console/pkg/models"
	"github.com/go-chi/chi/v5"
)

// AWBUseCase - операции представления AWB, доступные через API
type AWBUseCase interface {
	View() services.AWBView
	LoadOrders(ctx context.Context, account pkgmodels.AccountType) error
	LoadCouriers(ctx context.Context, account pkgmodels.AccountType) error
	OpenForm(orderID int64) error
	CloseForm()
	GenerateAWB(ctx context.Context, req services.GenerateRequest) (string, error)
	BulkGenerateAWB(ctx context.Context, confirmer services.Confirmer) (*models.BulkAWBResult, error)
	TrackAWB(ctx context.Context, awbNumber string) (*models.TrackingSnapshot, error)
}

// AWBHandler обработчик запросов управления накладными
type AWBHandler struct {
	awb    AWBUseCase
	logger interfaces.LoggerPort
}

// NewAWBHandler создает обработчик AWB
func NewAWBHandler(awb AWBUseCase, logger interfaces.LoggerPort) *AWBHandler {
	return &AWBHandler{
		awb:    awb,
		logger: logger,
	}
}

// generateBody - тело запроса генерации одной накладной
type generateBody struct {
	CourierAccountID int64               `json:"courier_account_id"`
	Packages         []models.AWBPackage `json:"packages,omitempty"`
}

// accountParam разбирает account_type. Пустое значение оставляет текущий аккаунт представления
func accountParam(r *http.Request) (pkgmodels.AccountType, bool) {
	raw := r.URL.Query().Get("account_type")
	if raw == "" {
		return "", true
	}
	account, err := pkgmodels.ParseAccountType(raw)
	if err != nil || account == pkgmodels.AccountBoth {
		return "", false
	}
	return account, true
}

// GetView возвращает текущее состояние представления без обращения к бэкенду
func (h *AWBHandler) GetView(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, h.awb.View(), nil)
}

// ListOrders загружает заказы, готовые к генерации, и возвращает их со счетчиками
func (h *AWBHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "bad_request", "account_type должен быть main или fbe")
		return
	}

	if err := h.awb.LoadOrders(r.Context(), account); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	view := h.awb.View()
	writeData(w, r, http.StatusOK, view.Orders, map[string]interface{}{
		"account_type": view.Account,
		"stats":        view.Stats,
		"pagination":   view.Pagination,
	})
}

// ListCouriers загружает активные курьерские аккаунты
func (h *AWBHandler) ListCouriers(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "bad_request", "account_type должен быть main или fbe")
		return
	}

	if err := h.awb.LoadCouriers(r.Context(), account); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	view := h.awb.View()
	writeData(w, r, http.StatusOK, view.Couriers, map[string]interface{}{
		"account_type": view.Account,
	})
}

// OpenForm открывает форму генерации для заказа
func (h *AWBHandler) OpenForm(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeServiceError(w, r, h.logger, utils.ErrInvalidOrderID)
		return
	}

	if err := h.awb.OpenForm(orderID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, r, http.StatusOK, h.awb.View(), nil)
}

// CloseForm закрывает форму генерации
func (h *AWBHandler) CloseForm(w http.ResponseWriter, r *http.Request) {
	h.awb.CloseForm()
	w.WriteHeader(http.StatusNoContent)
}

// Generate генерирует накладную для одного заказа
func (h *AWBHandler) Generate(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		writeServiceError(w, r, h.logger, utils.ErrInvalidOrderID)
		return
	}

	var body generateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "Некорректный формат данных")
		return
	}
	if body.CourierAccountID <= 0 {
		writeServiceError(w, r, h.logger, utils.ErrInvalidCourierID)
		return
	}

	awb, err := h.awb.GenerateAWB(r.Context(), services.GenerateRequest{
		OrderID:          orderID,
		CourierAccountID: body.CourierAccountID,
		Packages:         body.Packages,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, r, http.StatusCreated, map[string]interface{}{
		"order_id":   orderID,
		"awb_number": awb,
	}, nil)
}

// BulkGenerate генерирует накладные для всех подготовленных заказов.
// Подтверждение оператора передается параметром confirm=true
func (h *AWBHandler) BulkGenerate(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	result, err := h.awb.BulkGenerateAWB(r.Context(), services.ConfirmFunc(func(ctx context.Context, prompt string) bool {
		if !confirmed {
			h.logger.InfoWithContext(ctx, "Массовая генерация требует подтверждения",
				interfaces.LogField{Key: "prompt", Value: prompt})
		}
		return confirmed
	}))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, r, http.StatusOK, result, nil)
}

// Track возвращает снимок отслеживания накладной
func (h *AWBHandler) Track(w http.ResponseWriter, r *http.Request) {
	awbNumber := chi.URLParam(r, "awb")
	if awbNumber == "" {
		writeServiceError(w, r, h.logger, utils.ErrEmptyAWBNumber)
		return
	}

	snapshot, err := h.awb.TrackAWB(r.Context(), awbNumber)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, r, http.StatusOK, snapshot, nil)
}
