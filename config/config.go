package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config содержит все настройки консоли
type Config struct {
	AppName  string
	Version  string
	LogLevel string
	ENV      string

	Server struct {
		Host            string
		Port            int
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	// Backend - бэкенд интеграции eMAG, к которому обращается консоль
	Backend struct {
		BaseURL         string
		Token           string
		TokenFile       string // файл с токеном имеет приоритет над Token
		Timeout         time.Duration
		// TokenWarnBefore - за сколько до истечения токена предупреждать оператора
		TokenWarnBefore time.Duration
	}

	Account struct {
		Default string // main | fbe | both
	}

	AWB struct {
		OrdersPageSize int
	}

	Sync struct {
		PollInterval         time.Duration
		HealthInterval       time.Duration
		RefreshDelay         time.Duration
		HealthWarnLatency    time.Duration
		MaxPagesPerAccount   int
		DelayBetweenRequests float64
		IncludeInactive      bool
		ExportDir            string
		Realtime             bool
	}

	Notifications struct {
		Size int
	}

	Cache struct {
		Driver string // redis | memory
		TTL    time.Duration
	}

	Redis struct {
		Host      string
		Port      int
		Password  string
		DB        int
		KeyPrefix string
	}

	Kafka struct {
		Enabled            bool     `mapstructure:"enabled"`
		Brokers            []string `mapstructure:"brokers"`
		ClientID           string   `mapstructure:"client_id"`
		NotificationsTopic string   `mapstructure:"notifications_topic"`
		EventsTopic        string   `mapstructure:"events_topic"`
	}

	Postgres struct {
		Enabled  bool
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
		SSLMode  string
		Timeout  time.Duration
		PoolSize int // размер пула соединений
	}

	Keycloak KeycloakConfig

	Metrics struct {
		Enabled  bool
		Endpoint string
	}

	Security struct {
		CORSAllowOrigins []string
	}
}

// KeycloakConfig - конфигурация Keycloak: выдача токена бэкенду и проверка токенов операторов
type KeycloakConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	ServerURL     string   `mapstructure:"server_url"`
	Realm         string   `mapstructure:"realm"`
	ClientID      string   `mapstructure:"client_id"`
	ClientSecret  string   `mapstructure:"client_secret"`
	OperatorRoles []string `mapstructure:"operator_roles"`
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	configFile := "config"
	if configPath != "" {
		configFile = configPath
	}

	v := viper.New()
	v.SetConfigName(configFile)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AddConfigPath("../../config")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
		// Файла нет, используем значения по умолчанию и переменные окружения
	}

	setDefaults(v)
	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка десериализации конфигурации: %w", err)
	}

	cfg.ENV = v.GetString("env")
	if cfg.ENV == "" {
		cfg.ENV = "development"
		if envVar := os.Getenv("APP_ENV"); envVar != "" {
			cfg.ENV = envVar
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет значения, без которых консоль не может работать
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("не задан backend.baseURL")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("некорректный backend.timeout: %s", c.Backend.Timeout)
	}
	switch c.Account.Default {
	case "main", "fbe", "both":
	default:
		return fmt.Errorf("некорректный account.default: %q", c.Account.Default)
	}
	switch c.Cache.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("некорректный cache.driver: %q", c.Cache.Driver)
	}
	if c.Sync.PollInterval <= 0 || c.Sync.HealthInterval <= 0 {
		return errors.New("интервалы опроса должны быть положительными")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka включена, но не заданы брокеры")
	}
	if c.Keycloak.Enabled && (c.Keycloak.ServerURL == "" || c.Keycloak.Realm == "" || c.Keycloak.ClientID == "") {
		return errors.New("keycloak включен, но не заданы server_url, realm или client_id")
	}
	return nil
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	// Основные настройки
	v.SetDefault("appName", "emag-console")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("logLevel", "info")
	v.SetDefault("env", "development")

	// Настройки сервера
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "60s")
	v.SetDefault("server.shutdownTimeout", "10s")

	// Бэкенд интеграции
	v.SetDefault("backend.baseURL", "http://localhost:8000/api/v1")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.tokenWarnBefore", "10m")

	v.SetDefault("account.default", "main")
	v.SetDefault("awb.ordersPageSize", 100)

	// Мониторинг синхронизации
	v.SetDefault("sync.pollInterval", "2s")
	v.SetDefault("sync.healthInterval", "30s")
	v.SetDefault("sync.refreshDelay", "5s")
	v.SetDefault("sync.healthWarnLatency", "2s")
	v.SetDefault("sync.maxPagesPerAccount", 10)
	v.SetDefault("sync.delayBetweenRequests", 1.5)
	v.SetDefault("sync.includeInactive", false)
	v.SetDefault("sync.exportDir", "./exports")
	v.SetDefault("sync.realtime", true)

	v.SetDefault("notifications.size", 100)

	// Кэш снимков
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.keyPrefix", "emag-console:")

	// Kafka
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.client_id", "emag-console")
	v.SetDefault("kafka.notifications_topic", "emag-console.notifications")
	v.SetDefault("kafka.events_topic", "emag-console.events")

	// Журнал команд
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.dbname", "emag_console")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timeout", "5s")
	v.SetDefault("postgres.poolSize", 4)

	// Keycloak
	v.SetDefault("keycloak.enabled", false)
	v.SetDefault("keycloak.operator_roles", []string{"console-operator", "admin"})

	// Метрики
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.endpoint", "/metrics")

	v.SetDefault("security.corsAllowOrigins", []string{"*"})
}

// bindEnvVariables привязывает переменные окружения к конфигурации
func bindEnvVariables(v *viper.Viper) {
	bind := func(key, env string) {
		_ = v.BindEnv(key, env)
	}

	// Основные настройки
	bind("appName", "APP_NAME")
	bind("version", "APP_VERSION")
	bind("logLevel", "LOG_LEVEL")
	bind("env", "APP_ENV")

	// Настройки сервера
	bind("server.host", "SERVER_HOST")
	bind("server.port", "SERVER_PORT")
	bind("server.readTimeout", "SERVER_READ_TIMEOUT")
	bind("server.writeTimeout", "SERVER_WRITE_TIMEOUT")
	bind("server.shutdownTimeout", "SERVER_SHUTDOWN_TIMEOUT")

	// Бэкенд интеграции
	bind("backend.baseURL", "EMAG_BACKEND_URL")
	bind("backend.token", "EMAG_BACKEND_TOKEN")
	bind("backend.tokenFile", "EMAG_BACKEND_TOKEN_FILE")
	bind("backend.timeout", "EMAG_BACKEND_TIMEOUT")
	bind("backend.tokenWarnBefore", "EMAG_TOKEN_WARN_BEFORE")

	bind("account.default", "EMAG_ACCOUNT")
	bind("awb.ordersPageSize", "AWB_ORDERS_PAGE_SIZE")

	// Мониторинг синхронизации
	bind("sync.pollInterval", "SYNC_POLL_INTERVAL")
	bind("sync.healthInterval", "SYNC_HEALTH_INTERVAL")
	bind("sync.refreshDelay", "SYNC_REFRESH_DELAY")
	bind("sync.healthWarnLatency", "SYNC_HEALTH_WARN_LATENCY")
	bind("sync.maxPagesPerAccount", "SYNC_MAX_PAGES_PER_ACCOUNT")
	bind("sync.delayBetweenRequests", "SYNC_DELAY_BETWEEN_REQUESTS")
	bind("sync.includeInactive", "SYNC_INCLUDE_INACTIVE")
	bind("sync.exportDir", "SYNC_EXPORT_DIR")
	bind("sync.realtime", "SYNC_REALTIME")

	bind("notifications.size", "NOTIFICATIONS_SIZE")

	bind("cache.driver", "CACHE_DRIVER")
	bind("cache.ttl", "CACHE_TTL")

	bind("redis.host", "REDIS_HOST")
	bind("redis.port", "REDIS_PORT")
	bind("redis.password", "REDIS_PASSWORD")
	bind("redis.db", "REDIS_DB")
	bind("redis.keyPrefix", "REDIS_KEY_PREFIX")

	bind("kafka.enabled", "KAFKA_ENABLED")
	bind("kafka.brokers", "KAFKA_BROKERS")
	bind("kafka.client_id", "KAFKA_CLIENT_ID")
	bind("kafka.notifications_topic", "KAFKA_NOTIFICATIONS_TOPIC")
	bind("kafka.events_topic", "KAFKA_EVENTS_TOPIC")

	bind("postgres.enabled", "POSTGRES_ENABLED")
	bind("postgres.host", "POSTGRES_HOST")
	bind("postgres.port", "POSTGRES_PORT")
	bind("postgres.user", "POSTGRES_USER")
	bind("postgres.password", "POSTGRES_PASSWORD")
	bind("postgres.dbname", "POSTGRES_DBNAME")
	bind("postgres.sslmode", "POSTGRES_SSLMODE")
	bind("postgres.timeout", "POSTGRES_TIMEOUT")
	bind("postgres.poolSize", "POSTGRES_POOL_SIZE")

	bind("keycloak.enabled", "KEYCLOAK_ENABLED")
	bind("keycloak.server_url", "KEYCLOAK_SERVER_URL")
	bind("keycloak.realm", "KEYCLOAK_REALM")
	bind("keycloak.client_id", "KEYCLOAK_CLIENT_ID")
	bind("keycloak.client_secret", "KEYCLOAK_CLIENT_SECRET")

	bind("metrics.enabled", "METRICS_ENABLED")
	bind("metrics.endpoint", "METRICS_ENDPOINT")

	bind("security.corsAllowOrigins", "CORS_ALLOW_ORIGINS")
}
