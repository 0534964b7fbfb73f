package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := generateToken("user-42", "testsecret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := parseToken(token, "testsecret")
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestParseTokenErrors(t *testing.T) {
	tests := []struct {
		name  string
		token func() string
	}{
		{
			name:  "malformed token",
			token: func() string { return "not.a.jwt" },
		},
		{
			name:  "empty token",
			token: func() string { return "" },
		},
		{
			name: "expired token",
			token: func() string {
				token, err := generateToken("user-42", "testsecret", -time.Minute)
				require.NoError(t, err)
				return token
			},
		},
		{
			name: "wrong secret",
			token: func() string {
				token, err := generateToken("user-42", "othersecret", time.Hour)
				require.NoError(t, err)
				return token
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := parseToken(tt.token(), "testsecret")
			assert.Error(t, err)
			assert.Empty(t, userID)
		})
	}
}
