package security

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	pkgerrors "github.com/athebyme/emag-console/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		Subject:   "console",
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestStaticTokenProviderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o600))

	p := NewStaticTokenProvider("ignored", path)
	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", tok)

	// Ротация файла подхватывается без пересоздания провайдера
	require.NoError(t, os.WriteFile(path, []byte("second"), 0o600))
	tok, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", tok)
}

func TestStaticTokenProviderMissingFile(t *testing.T) {
	p := NewStaticTokenProvider("", filepath.Join(t.TempDir(), "absent"))
	_, err := p.Token(context.Background())
	require.Error(t, err)
}

func TestCheckTokenExpiry(t *testing.T) {
	now := time.Now()

	_, err := CheckTokenExpiry("", now, time.Hour)
	assert.ErrorIs(t, err, pkgerrors.ErrTokenNotFound)

	_, err = CheckTokenExpiry(signedToken(t, now.Add(-time.Minute)), now, time.Hour)
	assert.ErrorIs(t, err, pkgerrors.ErrTokenExpired)

	soon, err := CheckTokenExpiry(signedToken(t, now.Add(10*time.Minute)), now, time.Hour)
	require.NoError(t, err)
	assert.True(t, soon)

	soon, err = CheckTokenExpiry(signedToken(t, now.Add(48*time.Hour)), now, time.Hour)
	require.NoError(t, err)
	assert.False(t, soon)

	// Непрозрачный токен не проверяется
	soon, err = CheckTokenExpiry("opaque-token", now, time.Hour)
	require.NoError(t, err)
	assert.False(t, soon)
}

func TestClaimsHasAnyRole(t *testing.T) {
	var c Claims
	c.RealmAccess.Roles = []string{"viewer"}
	c.ResourceAccess = map[string]struct {
		Roles []string `json:"roles"`
	}{
		"emag-console": {Roles: []string{"operator"}},
	}

	assert.True(t, c.HasAnyRole("emag-console", "operator"))
	assert.True(t, c.HasAnyRole("other", "viewer"))
	assert.False(t, c.HasAnyRole("other", "operator"))
}
