package handlers

import (
	"errors"
	"net/http"

	"github.com/athebyme/emag-console/internal/adapters/backend"
	"github.com/athebyme/emag-console/internal/utils"
	"github.com/athebyme/emag-console/pkg/interfaces"
	"github.com/go-chi/render"
)

// errorResponse представляет структуру ответа с ошибкой
type errorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// response представляет структуру успешного ответа
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data, meta interface{}) {
	render.Status(r, status)
	render.JSON(w, r, response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{
		Error:   code,
		Code:    status,
		Message: message,
	})
}

// writeServiceError переводит ошибку сервиса в HTTP-ответ
func writeServiceError(w http.ResponseWriter, r *http.Request, log interfaces.LoggerPort, err error) {
	switch {
	case errors.Is(err, utils.ErrInvalidOrderID),
		errors.Is(err, utils.ErrInvalidCourierID),
		errors.Is(err, utils.ErrInvalidSyncKind),
		errors.Is(err, utils.ErrEmptyAWBNumber),
		errors.Is(err, utils.ErrEmptySyncID):
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	case errors.Is(err, utils.ErrOrderNotLoaded):
		writeError(w, r, http.StatusNotFound, "not_found", "Заказ не найден среди загруженных")
		return
	case errors.Is(err, utils.ErrNotConfirmed):
		writeError(w, r, http.StatusPreconditionRequired, "not_confirmed", "Операция требует подтверждения (confirm=true)")
		return
	case errors.Is(err, utils.ErrNoEligibleOrders):
		writeError(w, r, http.StatusConflict, "no_eligible_orders", "Нет заказов, готовых к генерации AWB")
		return
	case errors.Is(err, utils.ErrNoActiveCourier):
		writeError(w, r, http.StatusConflict, "no_active_courier", "Нет активного курьерского аккаунта")
		return
	case errors.Is(err, utils.ErrMonitorClosed):
		writeError(w, r, http.StatusServiceUnavailable, "unavailable", "Мониторинг синхронизации остановлен")
		return
	}

	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		log.ErrorWithContext(r.Context(), "Внутренняя ошибка обработки запроса",
			interfaces.LogField{Key: "error", Value: err.Error()})
		writeError(w, r, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка")
		return
	}

	switch apiErr.Kind {
	case backend.KindValidation:
		writeError(w, r, http.StatusUnprocessableEntity, "validation_error", apiErr.Message)
	case backend.KindRateLimit:
		writeError(w, r, http.StatusTooManyRequests, "rate_limited", "Превышен лимит запросов eMAG, повторите позже")
	default:
		log.WarnWithContext(r.Context(), "Ошибка бэкенда интеграции",
			interfaces.LogField{Key: "kind", Value: string(apiErr.Kind)},
			interfaces.LogField{Key: "error", Value: err.Error()})
		writeError(w, r, http.StatusBadGateway, "backend_"+string(apiErr.Kind), "Бэкенд интеграции недоступен или вернул ошибку")
	}
}
