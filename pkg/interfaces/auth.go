package interfaces

import (
	"context"
)

// TokenProvider выдает bearer-токен для запросов к бэкенду интеграции
type TokenProvider interface {
	// Token возвращает действующий токен; пустая строка означает запрос без авторизации
	Token(ctx context.Context) (string, error)
}
