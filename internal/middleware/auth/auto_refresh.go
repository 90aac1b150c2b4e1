package authmw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	authsvc "github.com/Skotchmaster/ethnic_shop/internal/auth/service"
	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
	"github.com/Skotchmaster/ethnic_shop/pkg/tokens"
)

const actorKey = "actor"

// Refresher rotates a refresh token into a fresh token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*authsvc.LoginResult, error)
}

type AutoRefreshMiddleware struct {
	JWTSecret    []byte
	Refresher    Refresher
	CookieSecure bool
}

type ValidatorFunc func(actor models.Actor) error

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(actor models.Actor) error {
		if !actor.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (m *AutoRefreshMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())

		// an outer group may already have authenticated this request
		if actor, ok := ActorFrom(c); ok {
			if validator != nil {
				if err := validator(actor); err != nil {
					return err
				}
			}
			return next(c)
		}

		if raw := bearerToken(c.Request()); raw != "" {
			claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
			return m.admit(c, next, claims, validator)
		}

		accessCookie, err := c.Cookie(tokens.AccessCookie)
		if err != nil || accessCookie.Value == "" {
			return m.refreshAndAdmit(c, next, validator)
		}

		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
		if err == nil {
			return m.admit(c, next, claims, validator)
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			l.Warn("auth_failed", "status", 401, "reason", "invalid access token")
			m.clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
		return m.refreshAndAdmit(c, next, validator)
	}
}

func (m *AutoRefreshMiddleware) refreshAndAdmit(c echo.Context, next echo.HandlerFunc, validator ValidatorFunc) error {
	refreshCookie, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || refreshCookie.Value == "" || m.Refresher == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}

	res, err := m.Refresher.Refresh(c.Request().Context(), refreshCookie.Value)
	if err != nil {
		m.clearAuthCookies(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
	}

	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp, m.CookieSecure))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp, m.CookieSecure))

	claims, err := tokens.AccessClaimsFromToken(res.AccessToken, m.JWTSecret)
	if err != nil {
		m.clearAuthCookies(c)
		return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
	}
	return m.admit(c, next, claims, validator)
}

func (m *AutoRefreshMiddleware) admit(c echo.Context, next echo.HandlerFunc, claims *tokens.AccessClaims, validator ValidatorFunc) error {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}
	actor := models.Actor{
		UserID: userID,
		Role:   claims.Role,
		Email:  claims.Email,
		Name:   claims.Name,
	}
	if validator != nil {
		if err := validator(actor); err != nil {
			return err
		}
	}
	setUserContext(c, actor)
	return next(c)
}

func (m *AutoRefreshMiddleware) clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", m.CookieSecure))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", m.CookieSecure))
}

func setUserContext(c echo.Context, a models.Actor) {
	c.Set("user_id", a.UserID.String())
	c.Set("role", a.Role)
	c.Set(actorKey, a)

	req := c.Request()
	l := logging.FromContext(req.Context()).With("user_id", a.UserID.String())
	c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))
}

// ActorFrom returns the principal set by RequireAuth or RequireAdmin.
func ActorFrom(c echo.Context) (models.Actor, bool) {
	a, ok := c.Get(actorKey).(models.Actor)
	return a, ok
}
