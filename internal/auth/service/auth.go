package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ethnic_shop/internal/auth/repo"
	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/pkg/hash"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
	"github.com/Skotchmaster/ethnic_shop/pkg/tokens"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("user not found")
)

const MinPasswordLen = 6

type AuthService struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         models.User
}

type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return 15 * time.Minute
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return 7 * 24 * time.Hour
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return email, nil
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLen)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("register_error", "status", 409, "reason", "user already exists")
			return nil, ErrConflict
		}
		l.Error("register_error", "status", 500, "reason", "internal server error", "error", err)
		return nil, err
	}
	l.Info("register_success", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	res, refreshRow, err := s.issue(*user)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if err := s.Repo.SaveRefresh(ctx, refreshRow); err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, err
	}
	return res, nil
}

func (s *AuthService) issue(user models.User) (*LoginResult, *models.RefreshToken, error) {
	now := s.now()
	accessExp := now.Add(s.accessTTL())
	access, err := tokens.CreateAccessToken(s.AccessSecret, user.ID.String(), user.Role, user.Email, user.Name, accessExp)
	if err != nil {
		return nil, nil, err
	}
	refreshExp := now.Add(s.refreshTTL())
	refresh, jti, err := tokens.CreateRefreshToken(s.RefreshSecret, user.ID.String(), refreshExp)
	if err != nil {
		return nil, nil, err
	}
	row := &models.RefreshToken{
		TokenHash: hash.Sha256Hex(refresh),
		JTI:       jti,
		UserID:    user.ID,
		ExpiresAt: refreshExp,
	}
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         user,
	}, row, nil
}

// Refresh rotates refreshToken: the presented token is revoked and a new pair issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid refresh token", "error", err)
		return nil, ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	res, row, err := s.issue(*user)
	if err != nil {
		return nil, err
	}
	err = s.Repo.RotateRefreshToken(ctx, claims.ID, hash.Sha256Hex(refreshToken), row, s.now())
	if err != nil {
		if errors.Is(err, repo.ErrTokenRevoked) {
			l.Warn("refresh_failed", "status", 401, "reason", "token expired or revoked", "user_id", userID)
			return nil, ErrUnauthorized
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}
	return res, nil
}

// Logout revokes refreshToken. Unparseable tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil
	}
	if err := s.Repo.RevokeRefresh(ctx, claims.ID); err != nil {
		logging.FromContext(ctx).Error("logout_error", "status", 500, "error", err)
		return err
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*models.User, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrValidation)
		}
		u.Name = name
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		u.Email = email
	}
	if in.Password != nil {
		if len(*in.Password) < MinPasswordLen {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLen)
		}
		pwHash, err := hash.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = pwHash
	}
	if err := s.Repo.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return u, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	l := logging.FromContext(ctx).With("svc", "auth.bootstrap")

	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{Name: "Admin", Email: email, PasswordHash: pwHash, Role: models.RoleAdmin}
	err = s.Repo.CreateUserIfNotExists(ctx, admin)
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		l.Debug("admin_exists", "email", email)
		return nil
	case err != nil:
		return err
	}
	l.Info("admin_created", "user_id", admin.ID)
	return nil
}

// UsersByIDs resolves owner names and emails for order views and exports.
func (s *AuthService) UsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	return s.Repo.UsersByIDs(ctx, ids)
}
