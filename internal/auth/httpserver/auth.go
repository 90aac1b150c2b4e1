package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ethnic_shop/internal/auth/service"
	"github.com/Skotchmaster/ethnic_shop/internal/auth/transport"
	authmw "github.com/Skotchmaster/ethnic_shop/internal/middleware/auth"
	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
	"github.com/Skotchmaster/ethnic_shop/pkg/tokens"
	"github.com/Skotchmaster/ethnic_shop/pkg/validation"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	CookieSecure bool
}

func mapError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func (h *AuthHTTP) setSession(c echo.Context, res *service.LoginResult) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp, h.CookieSecure))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp, h.CookieSecure))
}

func (h *AuthHTTP) clearSession(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", h.CookieSecure))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", h.CookieSecure))
}

func loginResponse(res *service.LoginResult) transport.LoginResponse {
	return transport.LoginResponse{
		User:         transport.ToUserResponse(res.User),
		IsAdmin:      res.User.Role == models.RoleAdmin,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp,
		RefreshExp:   res.RefreshExp,
	}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}

	u, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, transport.ToUserResponse(*u))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return mapError(err)
	}
	h.setSession(c, res)
	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, loginResponse(res))
}

// Refresh accepts the refresh token from its cookie or, for API clients, the body.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	raw := ""
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		raw = ck.Value
	}
	if raw == "" {
		var req transport.RefreshRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		raw = req.RefreshToken
	}
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		h.clearSession(c)
		l.Warn("refresh_error", "status", 401, "error", err)
		return mapError(err)
	}
	h.setSession(c, res)
	return c.JSON(http.StatusOK, loginResponse(res))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		if err := h.Svc.Logout(ctx, ck.Value); err != nil {
			h.clearSession(c)
			l.Error("logout_error", "status", 500, "reason", "cannot revoke refresh token", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}
	h.clearSession(c)
	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	actor, ok := authmw.ActorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	u, err := h.Svc.Me(c.Request().Context(), actor.UserID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, transport.ToUserResponse(*u))
}

func (h *AuthHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.profile")

	actor, ok := authmw.ActorFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var req transport.ProfileRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("profile_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}

	u, err := h.Svc.UpdateProfile(ctx, actor.UserID, service.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, transport.ToUserResponse(*u))
}
