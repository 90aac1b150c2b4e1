package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("access-secret")
	refreshSecret = []byte("refresh-secret")
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := CreateAccessToken(accessSecret, "u-1", "admin", "a@shop.test", "Asha", time.Now().Add(time.Minute))
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, accessSecret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "a@shop.test", claims.Email)

	_, err = AccessClaimsFromToken(tok, []byte("other"))
	assert.Error(t, err)
}

func TestExpiredAccessToken(t *testing.T) {
	t.Parallel()

	tok, err := CreateAccessToken(accessSecret, "u-1", "user", "", "", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, accessSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRefreshTokenCarriesJTI(t *testing.T) {
	t.Parallel()

	tok, jti, err := CreateRefreshToken(refreshSecret, "u-2", time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := RefreshClaimsFromToken(tok, refreshSecret)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "u-2", claims.Subject)
}

func TestRejectsOtherSigningMethod(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, AccessClaims{Role: "admin"}).SignedString(accessSecret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, accessSecret)
	assert.Error(t, err)
}
