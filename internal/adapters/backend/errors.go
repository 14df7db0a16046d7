package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind - закрытое множество классов ошибок бэкенда интеграции
type Kind string

const (
	// KindNetwork - запрос не дошел до бэкенда или ответ не был получен
	KindNetwork Kind = "network"
	// KindRateLimit - бэкенд или eMAG ограничили частоту запросов
	KindRateLimit Kind = "rate_limit"
	// KindValidation - бэкенд отклонил запрос (4xx), текст причины в Message
	KindValidation Kind = "validation"
	// KindServer - ошибка на стороне бэкенда или неразборчивый ответ
	KindServer Kind = "server"
)

// APIError - типизированная ошибка обращения к бэкенду
type APIError struct {
	Kind     Kind
	Endpoint string
	Status   int
	Code     string
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend %s: %s (status %d): %s", e.Endpoint, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("backend %s: %s: %s", e.Endpoint, e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf возвращает класс ошибки. Ошибки вне границы бэкенда считаются серверными,
// отмена контекста - сетевой
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return KindServer
}

// MessageOf возвращает текст причины, пригодный для показа оператору
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return ""
}

// errorBody - тело ответа об ошибке
type errorBody struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	Detail    json.RawMessage `json:"detail"`
	ErrorCode string          `json:"error_code"`
}

type detailItem struct {
	Msg string `json:"msg"`
}

// detailText разбирает поле detail: строку или список {msg}
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []detailItem
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		return obj.Error
	}

	return ""
}

// classify строит APIError по статусу и телу неуспешного ответа
func classify(endpoint string, status int, body []byte) *APIError {
	apiErr := &APIError{Endpoint: endpoint, Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Code = eb.ErrorCode
		apiErr.Message = detailText(eb.Detail)
		if apiErr.Message == "" {
			apiErr.Message = eb.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}

	switch {
	case status == http.StatusTooManyRequests || strings.HasPrefix(strings.ToUpper(apiErr.Code), "RATE_LIMIT"):
		apiErr.Kind = KindRateLimit
	case status >= 500:
		apiErr.Kind = KindServer
	case status >= 400:
		apiErr.Kind = KindValidation
	default:
		apiErr.Kind = KindServer
	}

	return apiErr
}
