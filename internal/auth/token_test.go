package auth

import (
	"testing"
	"time"

	"github.com/sentinelhq/sentinel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-characters-long!!"

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 15*time.Minute)

	tokenString, err := tm.GenerateToken("alice@example.com", models.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := tm.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, -1*time.Minute)

	tokenString, err := tm.GenerateToken("alice@example.com", models.RoleUser)
	require.NoError(t, err)

	_, err = tm.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm := NewTokenManager(testSecret, 15*time.Minute)
	other := NewTokenManager("another-secret-32-characters-ok!", 15*time.Minute)

	tokenString, err := tm.GenerateToken("alice@example.com", models.RoleUser)
	require.NoError(t, err)

	_, err = other.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestTokenManager_Garbage(t *testing.T) {
	tm := NewTokenManager(testSecret, 15*time.Minute)

	_, err := tm.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestGenerateCSRFToken_Unique(t *testing.T) {
	a, err := GenerateCSRFToken()
	require.NoError(t, err)
	b, err := GenerateCSRFToken()
	require.NoError(t, err)

	assert.Len(t, a, 64) // 32 random bytes hex encoded
	assert.NotEqual(t, a, b)
}
