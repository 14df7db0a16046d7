package api

import (
	"net/http"
	"time"

	_ "github.com/athebyme/emag-console/internal/api/docs"
	"github.com/athebyme/emag-console/internal/api/handlers"
	"github.com/athebyme/emag-console/internal/api/middleware"
	"github.com/athebyme/emag-console/internal/metrics"
	"github.com/athebyme/emag-console/pkg/interfaces"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// requestTimeout ограничивает обработку одного запроса API
const requestTimeout = 60 * time.Second

// RouterDeps - зависимости маршрутизатора
type RouterDeps struct {
	AWB              handlers.AWBUseCase
	Sync             handlers.SyncUseCase
	Notifications    handlers.NotificationLister
	Audit            interfaces.AuditPort
	Logger           interfaces.LoggerPort
	Metrics          *metrics.Registry
	MetricsPath      string
	CORSAllowOrigins []string
	// Validator проверяет токены операторов; nil отключает аутентификацию
	Validator        middleware.TokenValidator
	ClientID         string
	OperatorRoles    []string
}

// SetupRouter настраивает маршрутизатор
func SetupRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.CORS(deps.CORSAllowOrigins))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	r.Method(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	r.Method(http.MethodHead, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, deps.Metrics.Handler())
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	awbHandler := handlers.NewAWBHandler(deps.AWB, deps.Logger)
	syncHandler := handlers.NewSyncHandler(deps.Sync, deps.Logger)
	notificationHandler := handlers.NewNotificationHandler(deps.Notifications, deps.Audit, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(requestTimeout))
		if deps.Validator != nil {
			r.Use(middleware.Authenticate(deps.Validator, deps.Logger))
			if len(deps.OperatorRoles) > 0 {
				r.Use(middleware.RequireAnyRole(deps.ClientID, deps.OperatorRoles...))
			}
		}

		// Управление накладными
		r.Route("/awb", func(r chi.Router) {
			r.Get("/", awbHandler.GetView)
			r.Get("/orders", awbHandler.ListOrders)
			r.Get("/couriers", awbHandler.ListCouriers)
			r.Post("/orders/{id}/form", awbHandler.OpenForm)
			r.Delete("/form", awbHandler.CloseForm)
			r.Post("/orders/{id}/generate", awbHandler.Generate)
			r.Post("/bulk-generate", awbHandler.BulkGenerate)
			r.Get("/track/{awb}", awbHandler.Track)
		})

		// Мониторинг синхронизации
		r.Route("/sync", func(r chi.Router) {
			r.Get("/", syncHandler.GetView)
			r.Post("/refresh", syncHandler.Refresh)
			r.Post("/trigger/{kind}", syncHandler.Trigger)
			r.Put("/realtime", syncHandler.SetRealtime)
			r.Get("/health", syncHandler.Health)
			r.Get("/metrics", syncHandler.GetMetrics)
			r.Post("/export/{syncID}", syncHandler.Export)
		})

		r.Get("/notifications", notificationHandler.List)
		r.Delete("/notifications", notificationHandler.Clear)
		r.Get("/audit", notificationHandler.Audit)
	})

	return r
}
