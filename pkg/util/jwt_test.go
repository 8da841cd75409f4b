package util

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestTokenPair_Claims(t *testing.T) {
	tests := []struct {
		name      string
		accountID uint
		email     string
		role      string
	}{
		{"Jobseeker session", 1, "seeker@example.com", "jobseeker"},
		{"Employer session", 42, "boss@example.com", "employer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := GenerateTokenPair(tt.accountID, tt.email, tt.role, testSecret, 15*time.Minute, time.Hour)
			require.NoError(t, err)

			access, err := ValidateToken(tokens.AccessToken, testSecret)
			require.NoError(t, err)
			refresh, err := ValidateToken(tokens.RefreshToken, testSecret)
			require.NoError(t, err)

			for _, claims := range []*Claims{access, refresh} {
				assert.Equal(t, tt.accountID, claims.AccountID)
				assert.Equal(t, tt.email, claims.Email)
				assert.Equal(t, tt.role, claims.Role)
			}
			assert.Equal(t, TokenTypeAccess, access.TokenType)
			assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
			assert.True(t, access.ExpiresAt.Before(refresh.ExpiresAt.Time))
			assert.WithinDuration(t, access.ExpiresAt.Time, tokens.ExpiresAt, time.Second)
		})
	}
}

func TestTokenPair_TokenIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		tokens, err := GenerateTokenPair(7, "same@example.com", "employer", testSecret, 15*time.Minute, time.Hour)
		require.NoError(t, err)

		for _, raw := range []string{tokens.AccessToken, tokens.RefreshToken} {
			claims, err := ValidateToken(raw, testSecret)
			require.NoError(t, err)
			require.NotEmpty(t, claims.ID)
			assert.False(t, seen[claims.ID], "token id %s issued twice", claims.ID)
			seen[claims.ID] = true
		}
	}
	assert.Len(t, seen, 40)
}

func TestValidateToken_ExpiredAccessToken(t *testing.T) {
	tokens, err := GenerateTokenPair(3, "late@example.com", "jobseeker", testSecret, -time.Minute, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)

	// The refresh half of the same pair is still good
	refresh, err := ValidateToken(tokens.RefreshToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
}

func TestValidateToken_Rejections(t *testing.T) {
	tokens, err := GenerateTokenPair(123, "test@example.com", "jobseeker", testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tokens.AccessToken, ".")
	require.Len(t, parts, 3)
	other, err := GenerateTokenPair(1, "admin@example.com", "employer", testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	spliced := parts[0] + "." + strings.Split(other.AccessToken, ".")[1] + "." + parts[2]

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"Wrong secret", tokens.AccessToken, "wrong-secret"},
		{"Malformed", "invalid.token.format", testSecret},
		{"Empty", "", testSecret},
		{"Payload swapped", spliced, testSecret},
		{"Signature stripped", parts[0] + "." + parts[1] + ".", testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}
