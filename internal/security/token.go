package security

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	pkgerrors "github.com/athebyme/emag-console/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

// StaticTokenProvider выдает заранее выпущенный bearer-токен бэкенда.
// Если задан файл, токен перечитывается при каждом запросе, что позволяет ротировать его без перезапуска
type StaticTokenProvider struct {
	token string
	file  string
}

// NewStaticTokenProvider создает провайдер из значения или файла; файл имеет приоритет
func NewStaticTokenProvider(token, file string) *StaticTokenProvider {
	return &StaticTokenProvider{token: strings.TrimSpace(token), file: file}
}

// Token реализует interfaces.TokenProvider
func (p *StaticTokenProvider) Token(_ context.Context) (string, error) {
	if p.file != "" {
		raw, err := os.ReadFile(p.file)
		if err != nil {
			return "", fmt.Errorf("ошибка чтения файла токена: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return p.token, nil
}

// TokenExpiry извлекает срок действия из JWT без проверки подписи.
// ok=false, если токен не JWT или не содержит exp
func TokenExpiry(token string) (exp time.Time, ok bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// CheckTokenExpiry проверяет токен на истечение.
// Возвращает ErrTokenNotFound для пустого токена, ErrTokenExpired для истекшего,
// а soon=true, если до истечения осталось меньше warnBefore
func CheckTokenExpiry(token string, now time.Time, warnBefore time.Duration) (soon bool, err error) {
	if token == "" {
		return false, pkgerrors.ErrTokenNotFound
	}

	exp, ok := TokenExpiry(token)
	if !ok {
		return false, nil
	}
	if !exp.After(now) {
		return false, fmt.Errorf("%w: истек %s", pkgerrors.ErrTokenExpired, exp.Format(time.RFC3339))
	}
	return exp.Sub(now) < warnBefore, nil
}
