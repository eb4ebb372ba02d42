package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAccessToken(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateAccessToken("alice", 7, time.Now().Add(time.Hour), secret)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Name)
	userID, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, 7, userID)
	require.NotEmpty(t, claims.ID)

	_, err = ParseAccessToken(token, []byte("other"))
	require.Error(t, err)
}

func TestExpiredAccessToken(t *testing.T) {
	secret := []byte("secret")
	token, err := GenerateAccessToken("alice", 7, time.Now().Add(-time.Minute), secret)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, secret)
	require.Error(t, err)
}

func TestWrongAudience(t *testing.T) {
	secret := []byte("secret")
	token, err := generateToken("alice", 7, "user.refresh-token", time.Now().Add(time.Hour), secret)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, secret)
	require.Error(t, err)
}
