package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key"

func TestIssueAndParseAccessToken(t *testing.T) {
	token, err := IssueAccessToken(testSecret, "user-42", time.Hour)
	require.NoError(t, err)

	userID, err := ParseAccessToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestParseAccessTokenRejects(t *testing.T) {
	expired, err := IssueAccessToken(testSecret, "user-42", -time.Minute)
	require.NoError(t, err)

	wrongSecret, err := IssueAccessToken("other", "user-42", time.Hour)
	require.NoError(t, err)

	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, ErrInvalidToken},
		{"wrong secret", wrongSecret, ErrInvalidToken},
		{"garbage", "not-a-token", ErrInvalidToken},
		{"refresh token", sign(jwt.MapClaims{"user_id": "u", "exp": exp, "iss": TokenIssuer, "type": "refresh"}), ErrTokenType},
		{"foreign issuer", sign(jwt.MapClaims{"user_id": "u", "exp": exp, "iss": "someone-else"}), ErrInvalidToken},
		{"no expiry", sign(jwt.MapClaims{"user_id": "u", "iss": TokenIssuer}), ErrInvalidToken},
		{"no user", sign(jwt.MapClaims{"exp": exp, "iss": TokenIssuer}), ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessToken(testSecret, tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
