package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ethnic_shop/internal/auth/repo"
	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/internal/testutil"
	"github.com/Skotchmaster/ethnic_shop/pkg/tokens"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	return &AuthService{
		Repo:          &repo.GormRepo{DB: testutil.NewDB(t)},
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{name: "empty name", userName: "", email: "a@shop.test", password: "secret"},
		{name: "bad email", userName: "Asha", email: "not-an-email", password: "secret"},
		{name: "short password", userName: "Asha", email: "a@shop.test", password: "12345"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.userName, tc.email, tc.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Asha", "Asha@Shop.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "asha@shop.test", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)

	_, err = svc.Register(ctx, "Other", "asha@shop.test", "secret2")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_Login(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Asha", "asha@shop.test", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "asha@shop.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@shop.test", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := svc.Login(ctx, "asha@shop.test", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)

	claims, err := tokens.AccessClaimsFromToken(res.AccessToken, svc.AccessSecret)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.String(), claims.Subject)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, "asha@shop.test", claims.Email)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), res.AccessExp, 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), res.RefreshExp, 5*time.Second)
}

func TestAuthService_RefreshRotates(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Asha", "asha@shop.test", "secret1")
	require.NoError(t, err)
	first, err := svc.Login(ctx, "asha@shop.test", "secret1")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized, "rotated token must not be reusable")

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_LogoutRevokes(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Asha", "asha@shop.test", "secret1")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "asha@shop.test", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.RefreshToken))
	require.NoError(t, svc.Logout(ctx, ""))

	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, "Asha", "asha@shop.test", "secret1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Ravi", "ravi@shop.test", "secret1")
	require.NoError(t, err)

	name, pw := "Asha K", "newsecret"
	u, err := svc.UpdateProfile(ctx, a.ID, ProfileUpdate{Name: &name, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, "Asha K", u.Name)

	_, err = svc.Login(ctx, "asha@shop.test", "newsecret")
	require.NoError(t, err)

	taken := "ravi@shop.test"
	_, err = svc.UpdateProfile(ctx, a.ID, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	short := "123"
	_, err = svc.UpdateProfile(ctx, a.ID, ProfileUpdate{Password: &short})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_EnsureAdminIsIdempotent(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "root@shop.test", "rootpass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "root@shop.test", "rootpass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "", ""))

	res, err := svc.Login(ctx, "root@shop.test", "rootpass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)

	users, err := svc.UsersByIDs(ctx, []uuid.UUID{res.User.ID})
	require.NoError(t, err)
	assert.Equal(t, "root@shop.test", users[res.User.ID].Email)
}
