package utils

import (
	"strconv"
	"strings"
	"time"
)

// GenerateConnectionString собирает DSN для pgxpool в формате key=value.
// Пароль необязателен: журнал может работать через trust/peer-аутентификацию
func GenerateConnectionString(
	host, user, password, dbName, sslMode string,
	port, poolSize int,
	timeout time.Duration,
) (string, error) {
	if host == "" {
		return "", ErrStorageEmptyHostName
	}
	if port <= 0 || port > 65535 {
		return "", ErrStorageInvalidPortNumber
	}
	if user == "" {
		return "", ErrStorageEmptyUsername
	}
	if dbName == "" {
		return "", ErrStorageInvalidDatabaseName
	}
	if timeout < 0 {
		return "", ErrStorageInvalidTimeout
	}
	if poolSize < 0 {
		return "", ErrStorageInvalidPoolSize
	}
	if sslMode == "" {
		sslMode = "disable"
	}

	parts := []string{
		"host=" + host,
		"port=" + strconv.Itoa(port),
		"user=" + user,
		"dbname=" + dbName,
		"sslmode=" + sslMode,
	}
	if password != "" {
		parts = append(parts, "password="+password)
	}
	if timeout > 0 {
		parts = append(parts, "connect_timeout="+strconv.Itoa(int(timeout.Seconds())))
	}
	if poolSize > 0 {
		parts = append(parts, "pool_max_conns="+strconv.Itoa(poolSize))
	}

	return strings.Join(parts, " "), nil
}
