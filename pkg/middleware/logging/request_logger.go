package loggingmw

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
)

// Config controls the access log.
type Config struct {
	Logger *slog.Logger
	// SkipPrefixes are path prefixes served without a completion line,
	// e.g. health checks and metric scrapes.
	SkipPrefixes []string
	// EchoHeaders are request headers copied onto the completion line when
	// present, keyed by their lower-cased name.
	EchoHeaders []string
}

// RequestLogger stores a request-scoped logger in the context and writes one
// completion line per request. The level follows the response status class;
// client errors carry the handler's message as "reason".
func RequestLogger(cfg Config) echo.MiddlewareFunc {
	base := cfg.Logger
	if base == nil {
		base = slog.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With("method", req.Method, "path", c.Path(), "remote_ip", c.RealIP())
			if rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			if skipped(req.URL.Path, cfg.SkipPrefixes) {
				return nil
			}

			status := c.Response().Status
			attrs := []any{"status", status, "duration_ms", time.Since(start).Milliseconds()}
			if uid, ok := c.Get("user_id").(string); ok && uid != "" {
				attrs = append(attrs, "user_id", uid)
			}
			for _, h := range cfg.EchoHeaders {
				if v := req.Header.Get(h); v != "" {
					attrs = append(attrs, strings.ToLower(h), v)
				}
			}

			switch {
			case status >= http.StatusInternalServerError:
				l.Error("request_completed", append(attrs, "error", errText(err))...)
			case status >= http.StatusBadRequest:
				l.Warn("request_completed", append(attrs, "reason", reason(err))...)
			default:
				l.Info("request_completed", append(attrs, "bytes", c.Response().Size)...)
			}
			return nil
		}
	}
}

func skipped(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func reason(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return errText(err)
}

// errText includes the wrapped cause of an HTTPError, which MapError keeps
// out of the response body.
func errText(err error) string {
	if err == nil {
		return ""
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Internal != nil {
		return he.Internal.Error()
	}
	return err.Error()
}
