package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("emag-console-missing")
	require.NoError(t, err)

	assert.Equal(t, "emag-console", cfg.AppName)
	assert.Equal(t, "development", cfg.ENV)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "main", cfg.Account.Default)
	assert.Equal(t, 100, cfg.AWB.OrdersPageSize)
	assert.Equal(t, 2*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Sync.HealthInterval)
	assert.Equal(t, 10, cfg.Sync.MaxPagesPerAccount)
	assert.InDelta(t, 1.5, cfg.Sync.DelayBetweenRequests, 0.0001)
	assert.True(t, cfg.Sync.Realtime)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "emag-console.events", cfg.Kafka.EventsTopic)
	assert.Equal(t, []string{"console-operator", "admin"}, cfg.Keycloak.OperatorRoles)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EMAG_BACKEND_URL", "http://backend:8000/api/v1")
	t.Setenv("EMAG_ACCOUNT", "fbe")
	t.Setenv("SYNC_POLL_INTERVAL", "500ms")
	t.Setenv("CACHE_DRIVER", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load("emag-console-missing")
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8000/api/v1", cfg.Backend.BaseURL)
	assert.Equal(t, "fbe", cfg.Account.Default)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.PollInterval)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "production", cfg.ENV)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
backend:
  baseURL: http://file-backend/api/v1
  timeout: 5s
sync:
  refreshDelay: 0s
  exportDir: /tmp/exports
keycloak:
  enabled: true
  server_url: http://keycloak:8080
  realm: emag
  client_id: console
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "console.yaml"), content, 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("console")
	require.NoError(t, err)

	assert.Equal(t, "http://file-backend/api/v1", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, time.Duration(0), cfg.Sync.RefreshDelay)
	assert.Equal(t, "/tmp/exports", cfg.Sync.ExportDir)
	assert.True(t, cfg.Keycloak.Enabled)
	assert.Equal(t, "emag", cfg.Keycloak.Realm)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.Backend.BaseURL = "" }},
		{"bad account", func(c *Config) { c.Account.Default = "marketplace" }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"zero poll interval", func(c *Config) { c.Sync.PollInterval = 0 }},
		{"kafka without brokers", func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		}},
		{"keycloak without realm", func(c *Config) {
			c.Keycloak.Enabled = true
			c.Keycloak.ServerURL = "http://keycloak"
			c.Keycloak.ClientID = "console"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("emag-console-missing")
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
