package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() TokenConfig {
	return TokenConfig{Secret: "test-secret", Issuer: "taskflow-api", Audience: "taskflow-clients", TTL: time.Hour}
}

func TestIssueAndValidateToken(t *testing.T) {
	m := NewTokenManager(testConfig(), nil)
	token, issued, err := m.Issue("u-1", "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, issued.ID)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.UserID)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, issued.ID, claims.ID)
}

func TestValidateToken_Invalid(t *testing.T) {
	m := NewTokenManager(testConfig(), nil)
	_, err := m.Validate("invalid.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	issuer := NewTokenManager(testConfig(), func() time.Time { return issuedAt })
	token, _, err := issuer.Issue("u-1", "alice@example.com")
	require.NoError(t, err)

	_, err = NewTokenManager(testConfig(), nil).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongAudienceOrSecret(t *testing.T) {
	token, _, err := NewTokenManager(testConfig(), nil).Issue("u-1", "alice@example.com")
	require.NoError(t, err)

	other := testConfig()
	other.Audience = "someone-else"
	_, err = NewTokenManager(other, nil).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	other = testConfig()
	other.Secret = "different"
	_, err = NewTokenManager(other, nil).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
