package security

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// KeycloakConfig конфигурация для Keycloak
type KeycloakConfig struct {
	ServerURL    string
	Realm        string
	ClientID     string
	ClientSecret string
}

// Claims - claims токена оператора, выпущенного Keycloak
type Claims struct {
	UserID      string `json:"sub"`
	Username    string `json:"preferred_username"`
	Email       string `json:"email"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	ResourceAccess map[string]struct {
		Roles []string `json:"roles"`
	} `json:"resource_access"`
}

// KeycloakClient выпускает сервисные токены для бэкенда (client credentials)
// и проверяет токены операторов, обращающихся к API консоли
type KeycloakClient struct {
	verifier    *oidc.IDTokenVerifier
	tokenSource oauth2.TokenSource
	claimsCache *cache.Cache
}

// NewKeycloakClient выполняет OIDC discovery и создает клиента
func NewKeycloakClient(ctx context.Context, cfg KeycloakConfig) (*KeycloakClient, error) {
	providerURL := fmt.Sprintf("%s/realms/%s", cfg.ServerURL, cfg.Realm)

	provider, err := oidc.NewProvider(ctx, providerURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания OIDC провайдера: %w", err)
	}

	ccConfig := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     provider.Endpoint().TokenURL,
		Scopes:       []string{oidc.ScopeOpenID},
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID:          cfg.ClientID,
		SkipClientIDCheck: true,
	})

	return &KeycloakClient{
		verifier:    verifier,
		tokenSource: oauth2.ReuseTokenSource(nil, ccConfig.TokenSource(context.Background())),
		claimsCache: cache.New(5*time.Minute, 10*time.Minute),
	}, nil
}

// Token реализует interfaces.TokenProvider: сервисный токен переиспользуется до истечения
func (k *KeycloakClient) Token(_ context.Context) (string, error) {
	tok, err := k.tokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("ошибка получения сервисного токена: %w", err)
	}
	return tok.AccessToken, nil
}

// ValidateToken проверяет токен оператора и возвращает claims
func (k *KeycloakClient) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if cached, found := k.claimsCache.Get(tokenString); found {
		return cached.(*Claims), nil
	}

	idToken, err := k.verifier.Verify(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("ошибка верификации токена: %w", err)
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("ошибка извлечения claims: %w", err)
	}

	if expiresIn := time.Until(idToken.Expiry); expiresIn > 0 {
		k.claimsCache.Set(tokenString, &claims, expiresIn)
	}

	return &claims, nil
}

// HasAnyRole проверяет роли realm и роли указанного клиента
func (c *Claims) HasAnyRole(clientID string, roles ...string) bool {
	for _, role := range roles {
		for _, r := range c.RealmAccess.Roles {
			if r == role {
				return true
			}
		}
		if clientRoles, ok := c.ResourceAccess[clientID]; ok {
			for _, r := range clientRoles.Roles {
				if r == role {
					return true
				}
			}
		}
	}
	return false
}
