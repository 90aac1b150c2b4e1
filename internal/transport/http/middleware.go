package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/ethnic_shop/internal/middleware/csrf"
	"github.com/Skotchmaster/ethnic_shop/pkg/idempotency"
	"github.com/Skotchmaster/ethnic_shop/pkg/metrics"
	loggingmw "github.com/Skotchmaster/ethnic_shop/pkg/middleware/logging"
)

type CommonConfig struct {
	Logger       *slog.Logger
	CORSOrigins  []string
	CookieSecure bool
}

// csrfExempt are the endpoints a client calls before it holds a session.
var csrfExempt = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/api/v1/auth/refresh",
}

// Common is the middleware chain every request passes through, outermost first.
func Common(cfg CommonConfig) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		ecM.Recover(),
		ecM.RequestID(),
		loggingmw.RequestLogger(loggingmw.Config{
			Logger:       cfg.Logger,
			SkipPrefixes: []string{"/health/", "/metrics"},
			EchoHeaders:  []string{idempotency.Header},
		}),
		metrics.Middleware(),
		ecM.CORSWithConfig(ecM.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: true,
			AllowHeaders: []string{
				echo.HeaderContentType, echo.HeaderAuthorization,
				"X-CSRF-Token", idempotency.Header,
			},
			ExposeHeaders: []string{"X-CSRF-Token", echo.HeaderXRequestID},
		}),
		ecM.Secure(),
		csrf.Middleware(csrf.Config{Secure: cfg.CookieSecure, SkipPaths: csrfExempt}),
	}
}
