package metrics

import (
	"net/http"
	"time"

	"github.com/athebyme/emag-console/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry - приватный реестр метрик консоли
type Registry struct {
	reg *prometheus.Registry

	BackendDuration *prometheus.HistogramVec
	BackendRequests *prometheus.CounterVec
	PollTicks       *prometheus.CounterVec
	HealthStatus    *prometheus.GaugeVec
	Notifications   *prometheus.CounterVec
	SyncTriggers    *prometheus.CounterVec
	HTTPDurations   *prometheus.HistogramVec
	HTTPRequests    *prometheus.CounterVec
	ActiveRequests  prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "emag_console_backend_request_duration_seconds",
		Help:    "Duration of integration backend requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})
	backendRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emag_console_backend_requests_total",
		Help: "Integration backend requests by endpoint and outcome kind",
	}, []string{"endpoint", "outcome"})
	pollTicks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emag_console_poll_ticks_total",
		Help: "Ticks of the repeating loops",
	}, []string{"loop"})
	healthStatus := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "emag_console_backend_health",
		Help: "Current backend health status (1 for the active status)",
	}, []string{"status"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emag_console_notifications_total",
		Help: "Operator notifications by level",
	}, []string{"level"})
	syncTriggers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emag_console_sync_triggers_total",
		Help: "Sync triggers by kind and result",
	}, []string{"kind", "result"})
	httpDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "emag_console_http_request_duration_seconds",
		Help:    "Duration of console API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emag_console_http_requests_total",
		Help: "Console API requests",
	}, []string{"method", "route", "status"})
	activeRequests := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "emag_console_http_active_requests",
		Help: "Console API requests in flight",
	})

	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		backendDuration, backendRequests, pollTicks, healthStatus,
		notifications, syncTriggers, httpDurations, httpRequests, activeRequests,
	)

	return &Registry{
		reg:             r,
		BackendDuration: backendDuration,
		BackendRequests: backendRequests,
		PollTicks:       pollTicks,
		HealthStatus:    healthStatus,
		Notifications:   notifications,
		SyncTriggers:    syncTriggers,
		HTTPDurations:   httpDurations,
		HTTPRequests:    httpRequests,
		ActiveRequests:  activeRequests,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// ObserveBackendRequest реализует backend.RequestObserver
func (r *Registry) ObserveBackendRequest(endpoint, outcome string, duration time.Duration) {
	r.BackendDuration.WithLabelValues(endpoint, outcome).Observe(duration.Seconds())
	r.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
}

// PollTick учитывает тик повторяющегося цикла
func (r *Registry) PollTick(loop string) {
	r.PollTicks.WithLabelValues(loop).Inc()
}

// SetHealth выставляет 1 для текущего статуса и 0 для остальных
func (r *Registry) SetHealth(status models.HealthStatus) {
	for _, s := range []models.HealthStatus{models.HealthUnknown, models.HealthHealthy, models.HealthWarning, models.HealthError} {
		v := 0.0
		if s == status {
			v = 1
		}
		r.HealthStatus.WithLabelValues(string(s)).Set(v)
	}
}

// Notification учитывает уведомление оператора
func (r *Registry) Notification(level models.NotificationLevel) {
	r.Notifications.WithLabelValues(string(level)).Inc()
}

// SyncTriggered учитывает запуск синхронизации
func (r *Registry) SyncTriggered(kind models.SyncKind, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	r.SyncTriggers.WithLabelValues(string(kind), result).Inc()
}
