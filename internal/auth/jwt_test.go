package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoinoikaz/TruthCapture/internal/domain"
)

func TestGenerateAndValidateSessionToken(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, tokenID, err := m.GenerateSessionToken("user-1", "a@b.com", domain.RoleUser, true)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, tokenID)

	claims, err := m.ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, tokenID, claims.ID)
}

func TestValidateSessionToken_WrongSecret(t *testing.T) {
	m := NewJWTManager("secret-one", time.Hour)
	token, _, err := m.GenerateSessionToken("user-1", "a@b.com", domain.RoleUser, false)
	require.NoError(t, err)

	other := NewJWTManager("secret-two", time.Hour)
	_, err = other.ValidateSessionToken(token)
	assert.Error(t, err)
}

func TestValidateSessionToken_Expired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)
	token, _, err := m.GenerateSessionToken("user-1", "a@b.com", domain.RoleUser, false)
	require.NoError(t, err)

	_, err = m.ValidateSessionToken(token)
	assert.Error(t, err)
}

func TestValidateSessionToken_Garbage(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	_, err := m.ValidateSessionToken("not-a-token")
	assert.Error(t, err)
}

func TestGenerateSessionToken_UniqueTokenIDs(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	_, id1, err := m.GenerateSessionToken("user-1", "a@b.com", domain.RoleUser, false)
	require.NoError(t, err)
	_, id2, err := m.GenerateSessionToken("user-1", "a@b.com", domain.RoleUser, false)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}
