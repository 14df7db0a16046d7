package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/athebyme/emag-console/internal/domain/services"
	"github.com/athebyme/emag-console/pkg/interfaces"
	"github.com/go-chi/chi/v5"
)

// SyncUseCase - операции мониторинга синхронизации, доступные через API
type SyncUseCase interface {
	View() services.SyncView
	Metrics() models.SyncMetrics
	FetchSyncSnapshot(ctx context.Context) models.SyncSnapshot
	TriggerSync(ctx context.Context, kind models.SyncKind) error
	SetRealtime(on bool)
	CheckHealth(ctx context.Context) models.HealthStatus
	ExportSyncRecord(ctx context.Context, syncID string) (string, error)
}

// SyncHandler обработчик запросов мониторинга синхронизации
type SyncHandler struct {
	sync   SyncUseCase
	logger interfaces.LoggerPort
}

// NewSyncHandler создает обработчик мониторинга синхронизации
func NewSyncHandler(sync SyncUseCase, logger interfaces.LoggerPort) *SyncHandler {
	return &SyncHandler{
		sync:   sync,
		logger: logger,
	}
}

type realtimeBody struct {
	Enabled *bool `json:"enabled"`
}

// GetView возвращает состояние мониторинга
func (h *SyncHandler) GetView(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, h.sync.View(), nil)
}

// Refresh загружает свежий снимок. Частичные сбои отражены в failed_parts
func (h *SyncHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snapshot := h.sync.FetchSyncSnapshot(r.Context())
	writeData(w, r, http.StatusOK, snapshot, nil)
}

// Trigger запускает синхронизацию. Ответ не ждет подтверждения бэкенда:
// результат запуска приходит уведомлением и через GET /sync
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	kind := models.SyncKind(chi.URLParam(r, "kind"))

	if err := h.sync.TriggerSync(r.Context(), kind); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, r, http.StatusAccepted, h.sync.View(), nil)
}

// SetRealtime включает или выключает проверку доступности бэкенда
func (h *SyncHandler) SetRealtime(w http.ResponseWriter, r *http.Request) {
	var body realtimeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "Ожидается {\"enabled\": true|false}")
		return
	}

	h.sync.SetRealtime(*body.Enabled)
	writeData(w, r, http.StatusOK, h.sync.View(), nil)
}

// Health выполняет проверку доступности бэкенда вне расписания
func (h *SyncHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.sync.CheckHealth(r.Context())
	view := h.sync.View()
	writeData(w, r, http.StatusOK, map[string]interface{}{
		"status":     status,
		"checked_at": view.HealthCheckedAt,
		"latency_ms": view.HealthLatencyMs,
	}, nil)
}

// GetMetrics возвращает производные метрики по истории
func (h *SyncHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, h.sync.Metrics(), nil)
}

// Export сохраняет выгрузку запуска файлом
func (h *SyncHandler) Export(w http.ResponseWriter, r *http.Request) {
	syncID := chi.URLParam(r, "syncID")

	path, err := h.sync.ExportSyncRecord(r.Context(), syncID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, r, http.StatusCreated, map[string]string{
		"sync_id": syncID,
		"path":    path,
	}, nil)
}
