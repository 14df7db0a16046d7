package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athebyme/emag-console/config"
	"github.com/athebyme/emag-console/internal/adapters/backend"
	"github.com/athebyme/emag-console/internal/adapters/cache"
	"github.com/athebyme/emag-console/internal/adapters/logger"
	"github.com/athebyme/emag-console/internal/adapters/messaging"
	"github.com/athebyme/emag-console/internal/adapters/storage"
	"github.com/athebyme/emag-console/internal/api"
	"github.com/athebyme/emag-console/internal/api/middleware"
	"github.com/athebyme/emag-console/internal/domain/services"
	"github.com/athebyme/emag-console/internal/metrics"
	"github.com/athebyme/emag-console/internal/security"
	"github.com/athebyme/emag-console/internal/utils"
	pkgerrors "github.com/athebyme/emag-console/pkg/errors"
	"github.com/athebyme/emag-console/pkg/interfaces"
	pkgmodels "github.com/athebyme/emag-console/pkg/models"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONSOLE_CONFIG"))
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := logger.NewZapLogger(cfg.LogLevel, cfg.ENV == "production")
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Инициализация консоли",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
		interfaces.LogField{Key: "backend", Value: cfg.Backend.BaseURL},
	)

	account, err := pkgmodels.ParseAccountType(cfg.Account.Default)
	if err != nil {
		log.Fatal("Некорректный аккаунт по умолчанию", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	reg := metrics.NewRegistry()

	// Токен бэкенда: сервисный токен Keycloak либо заранее выпущенный токен
	var (
		tokens    interfaces.TokenProvider
		validator middleware.TokenValidator
	)
	if cfg.Keycloak.Enabled {
		kc, err := security.NewKeycloakClient(ctx, security.KeycloakConfig{
			ServerURL:    cfg.Keycloak.ServerURL,
			Realm:        cfg.Keycloak.Realm,
			ClientID:     cfg.Keycloak.ClientID,
			ClientSecret: cfg.Keycloak.ClientSecret,
		})
		if err != nil {
			log.Fatal("Ошибка инициализации Keycloak", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		tokens = kc
		validator = kc
		log.Info("Keycloak инициализирован", interfaces.LogField{Key: "realm", Value: cfg.Keycloak.Realm})
	} else {
		static := security.NewStaticTokenProvider(cfg.Backend.Token, cfg.Backend.TokenFile)
		tokens = static
		checkStaticToken(ctx, static, cfg.Backend.TokenWarnBefore, log)
	}

	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, log, backend.WithTokenProvider(tokens), backend.WithObserver(reg))
	if err != nil {
		log.Fatal("Ошибка инициализации клиента бэкенда", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	cacheClient, err := newCache(ctx, cfg, log)
	if err != nil {
		log.Fatal("Ошибка инициализации кэша", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	defer cacheClient.Close()

	var publisher interfaces.MessagingPort
	if cfg.Kafka.Enabled {
		messagingClient, err := messaging.NewKafkaMessaging(cfg.Kafka.Brokers, cfg.Kafka.ClientID, log)
		if err != nil {
			log.Fatal("Ошибка инициализации системы обмена сообщениями", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		defer messagingClient.Close()
		publisher = messagingClient
		log.Info("Система обмена сообщениями инициализирована",
			interfaces.LogField{Key: "brokers", Value: cfg.Kafka.Brokers})
	}

	var audit interfaces.AuditPort
	if cfg.Postgres.Enabled {
		auditStorage, err := newAuditStorage(ctx, cfg)
		if err != nil {
			log.Fatal("Ошибка инициализации журнала команд", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		defer auditStorage.Close()
		audit = auditStorage
		log.Info("Журнал команд инициализирован")
	}

	feed := services.NewNotificationFeed(services.NotificationFeedConfig{
		Size:      cfg.Notifications.Size,
		Publisher: publisher,
		Topic:     cfg.Kafka.NotificationsTopic,
		Metrics:   reg,
	}, log)

	awbAccount := account
	if awbAccount == pkgmodels.AccountBoth {
		awbAccount = pkgmodels.AccountMain
	}
	awbService := services.NewAWBService(services.AWBConfig{
		Account:        awbAccount,
		OrdersPageSize: cfg.AWB.OrdersPageSize,
		EventsTopic:    cfg.Kafka.EventsTopic,
	}, services.AWBDeps{
		Backend:   client,
		Notifier:  feed,
		Audit:     audit,
		Publisher: publisher,
	}, log)

	monitor := services.NewSyncMonitor(services.SyncConfig{
		Account:              account,
		PollInterval:         cfg.Sync.PollInterval,
		HealthInterval:       cfg.Sync.HealthInterval,
		RefreshDelay:         cfg.Sync.RefreshDelay,
		HealthWarnLatency:    cfg.Sync.HealthWarnLatency,
		MaxPagesPerAccount:   cfg.Sync.MaxPagesPerAccount,
		DelayBetweenRequests: cfg.Sync.DelayBetweenRequests,
		IncludeInactive:      cfg.Sync.IncludeInactive,
		ExportDir:            cfg.Sync.ExportDir,
		Realtime:             cfg.Sync.Realtime,
		CacheTTL:             cfg.Cache.TTL,
		EventsTopic:          cfg.Kafka.EventsTopic,
	}, services.SyncDeps{
		Backend:   client,
		Notifier:  feed,
		Cache:     cacheClient,
		Audit:     audit,
		Publisher: publisher,
		Metrics:   reg,
	}, log)

	startCtx, startCancel := context.WithTimeout(ctx, cfg.Backend.Timeout)
	if err := monitor.Start(startCtx); err != nil {
		startCancel()
		log.Fatal("Ошибка запуска мониторинга синхронизации", interfaces.LogField{Key: "error", Value: err.Error()})
	}
	startCancel()
	log.Info("Мониторинг синхронизации запущен",
		interfaces.LogField{Key: "account_type", Value: account.String()},
		interfaces.LogField{Key: "realtime", Value: cfg.Sync.Realtime})

	var metricsRegistry *metrics.Registry
	if cfg.Metrics.Enabled {
		metricsRegistry = reg
	}

	router := api.SetupRouter(api.RouterDeps{
		AWB:              awbService,
		Sync:             monitor,
		Notifications:    feed,
		Audit:            audit,
		Logger:           log,
		Metrics:          metricsRegistry,
		MetricsPath:      cfg.Metrics.Endpoint,
		CORSAllowOrigins: cfg.Security.CORSAllowOrigins,
		Validator:        validator,
		ClientID:         cfg.Keycloak.ClientID,
		OperatorRoles:    cfg.Keycloak.OperatorRoles,
	})
	log.Info("Маршрутизатор настроен")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Сервер запущен", interfaces.LogField{Key: "address", Value: server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка запуска сервера", interfaces.LogField{Key: "error", Value: err.Error()})
		}
	}()

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Ошибка при graceful shutdown", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		log.Info("HTTP сервер остановлен")

		// Циклы опроса останавливаются до закрытия зависимостей, которыми они пользуются
		monitor.Close()
		log.Info("Мониторинг синхронизации остановлен")

		cancel()
		close(done)
	}()

	<-done
	log.Info("Консоль корректно завершила работу")
}

// newCache создает кэш снимков по настройке cache.driver
func newCache(ctx context.Context, cfg *config.Config, log interfaces.LoggerPort) (interfaces.CachePort, error) {
	if cfg.Cache.Driver != "redis" {
		log.Info("Используется кэш в памяти")
		return cache.NewMemoryCache(10 * time.Minute), nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c, err := cache.NewRedisCache(pingCtx, cache.RedisConfig{
		Host:      cfg.Redis.Host,
		Port:      cfg.Redis.Port,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		KeyPrefix: cfg.Redis.KeyPrefix,
	})
	if err != nil {
		return nil, err
	}
	log.Info("Соединение с Redis проверено",
		interfaces.LogField{Key: "address", Value: fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)})
	return c, nil
}

// newAuditStorage подключает журнал команд к PostgreSQL
func newAuditStorage(ctx context.Context, cfg *config.Config) (*storage.AuditStorage, error) {
	connString, err := utils.GenerateConnectionString(
		cfg.Postgres.Host,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
		cfg.Postgres.Port,
		cfg.Postgres.PoolSize,
		cfg.Postgres.Timeout,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования строки подключения: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Postgres.Timeout)
	defer cancel()

	return storage.NewAuditStorage(connectCtx, connString)
}

// checkStaticToken предупреждает о пустом, истекшем или скоро истекающем токене.
// Консоль запускается в любом случае: без токена бэкенд ответит ошибкой, которую увидит оператор
func checkStaticToken(ctx context.Context, p *security.StaticTokenProvider, warnBefore time.Duration, log interfaces.LoggerPort) {
	token, err := p.Token(ctx)
	if err != nil {
		log.Warn("Не удалось прочитать токен бэкенда", interfaces.LogField{Key: "error", Value: err.Error()})
		return
	}

	soon, err := security.CheckTokenExpiry(token, time.Now(), warnBefore)
	switch {
	case errors.Is(err, pkgerrors.ErrTokenNotFound):
		log.Warn("Токен бэкенда не задан, запросы будут отправляться без авторизации")
	case errors.Is(err, pkgerrors.ErrTokenExpired):
		log.Warn("Токен бэкенда истек")
	case err != nil:
		log.Warn("Не удалось проверить токен бэкенда", interfaces.LogField{Key: "error", Value: err.Error()})
	case soon:
		log.Warn("Токен бэкенда скоро истечет", interfaces.LogField{Key: "warn_before", Value: warnBefore.String()})
	}
}
