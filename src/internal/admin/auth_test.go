// FILE: src/internal/admin/auth_test.go
package admin

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func TestTokenVault_Disabled(t *testing.T) {
	vault, err := NewTokenVault(nil, "", newTestLogger())
	require.NoError(t, err)
	require.Nil(t, vault)

	assert.NoError(t, vault.Authorize(""), "nil vault accepts everything")
}

func TestTokenVault_StaticTokens(t *testing.T) {
	vault, err := NewTokenVault([]string{"sesame", "other"}, "", newTestLogger())
	require.NoError(t, err)
	require.NotNil(t, vault)

	assert.NoError(t, vault.Authorize("Bearer sesame"))
	assert.NoError(t, vault.Authorize("Bearer other"))
	assert.Error(t, vault.Authorize("Bearer wrong"))
	assert.Error(t, vault.Authorize("sesame"), "scheme prefix required")
	assert.Error(t, vault.Authorize(""))
	assert.Error(t, vault.Authorize("Bearer "))
}

func TestTokenVault_EmptyTokenRejected(t *testing.T) {
	_, err := NewTokenVault([]string{""}, "", newTestLogger())
	assert.Error(t, err)
}

func TestTokenVault_JWT(t *testing.T) {
	key := "jwt-signing-secret"
	vault, err := NewTokenVault(nil, key, newTestLogger())
	require.NoError(t, err)
	require.NotNil(t, vault)

	sign := func(key string, exp time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "operator",
			"exp": exp.Unix(),
		})
		signed, err := token.SignedString([]byte(key))
		require.NoError(t, err)
		return signed
	}

	assert.NoError(t, vault.Authorize("Bearer "+sign(key, time.Now().Add(time.Hour))))
	assert.Error(t, vault.Authorize("Bearer "+sign(key, time.Now().Add(-time.Hour))), "expired")
	assert.Error(t, vault.Authorize("Bearer "+sign("wrong-key", time.Now().Add(time.Hour))))
	assert.Error(t, vault.Authorize("Bearer not.a.jwt"))
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
