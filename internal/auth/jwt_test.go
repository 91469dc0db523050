package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-reservation-api/internal/auth"
	"room-reservation-api/internal/models"
)

func newTestIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer("test-secret", 15*time.Minute, 7*24*time.Hour, auth.NewMemoryTokenStore())
}

func TestIssueAndVerify(t *testing.T) {
	issuer := newTestIssuer()

	pair, err := issuer.Issue(context.Background(), 42, models.RoleManager)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := issuer.Verify(pair.AccessToken, auth.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, models.RoleManager, claims.Role)
}

func TestVerifyRejectsWrongType(t *testing.T) {
	issuer := newTestIssuer()
	pair, err := issuer.Issue(context.Background(), 1, models.RoleUser)
	require.NoError(t, err)

	_, err = issuer.Verify(pair.RefreshToken, auth.TokenAccess)
	assert.Error(t, err, "a refresh token must not verify as an access token")

	_, err = issuer.Verify(pair.AccessToken, auth.TokenRefresh)
	assert.Error(t, err, "an access token must not verify as a refresh token")
}

func TestRefreshRotatesBothTokens(t *testing.T) {
	issuer := newTestIssuer()
	pair, err := issuer.Issue(context.Background(), 7, models.RoleAdmin)
	require.NoError(t, err)

	rotated, err := issuer.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, rotated.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	claims, err := issuer.Verify(rotated.AccessToken, auth.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
}

func TestRefreshRejectsReuseOfRotatedToken(t *testing.T) {
	issuer := newTestIssuer()
	pair, err := issuer.Issue(context.Background(), 7, models.RoleAdmin)
	require.NoError(t, err)

	_, err = issuer.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	_, err = issuer.Refresh(context.Background(), pair.RefreshToken)
	assert.Error(t, err, "a refresh token must not be usable a second time after rotation")
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := newTestIssuer()
	_, err := issuer.Verify("not-a-token", auth.TokenAccess)
	assert.Error(t, err)
}

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NoError(t, auth.VerifyPassword(hash, "correct horse battery staple"))
	assert.Error(t, auth.VerifyPassword(hash, "wrong password"))
}
