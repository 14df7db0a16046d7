package handlers

import (
	"net/http"
	"strconv"

	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/athebyme/emag-console/pkg/interfaces"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// NotificationLister - лента уведомлений оператора
type NotificationLister interface {
	List(limit int) []models.Notification
	Clear()
}

// NotificationHandler обработчик запросов ленты уведомлений и журнала команд
type NotificationHandler struct {
	feed   NotificationLister
	audit  interfaces.AuditPort
	logger interfaces.LoggerPort
}

// NewNotificationHandler создает обработчик. audit может быть nil, если журнал отключен
func NewNotificationHandler(feed NotificationLister, audit interfaces.AuditPort, logger interfaces.LoggerPort) *NotificationHandler {
	return &NotificationHandler{
		feed:   feed,
		audit:  audit,
		logger: logger,
	}
}

// List возвращает уведомления, новые первыми
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		limit = 0
	}

	items := h.feed.List(limit)
	writeData(w, r, http.StatusOK, items, map[string]interface{}{
		"count": len(items),
	})
}

// Clear очищает ленту
func (h *NotificationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.feed.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// Audit возвращает последние записи журнала команд
func (h *NotificationHandler) Audit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeError(w, r, http.StatusNotFound, "not_found", "Журнал команд отключен")
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	entries, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorWithContext(r.Context(), "Ошибка чтения журнала команд",
			interfaces.LogField{Key: "error", Value: err.Error()})
		writeError(w, r, http.StatusInternalServerError, "internal_error", "Ошибка чтения журнала команд")
		return
	}

	writeData(w, r, http.StatusOK, entries, map[string]interface{}{
		"count": len(entries),
		"limit": limit,
	})
}
