package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/ethnic_shop/internal/middleware/auth"
	orderhttp "github.com/Skotchmaster/ethnic_shop/internal/order/httpserver"
	"github.com/Skotchmaster/ethnic_shop/internal/payment/service"
	"github.com/Skotchmaster/ethnic_shop/internal/payment/transport"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
	"github.com/Skotchmaster/ethnic_shop/pkg/validation"
)

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func mapError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrSignatureMismatch):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrGatewayUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, http.StatusText(http.StatusBadGateway)).SetInternal(err)
	default:
		// settlement failures carry the order service's sentinels
		return orderhttp.MapError(err)
	}
}

func (h *PaymentHTTP) Methods(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Methods())
}

func (h *PaymentHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create_order")

	actor, _ := authmw.ActorFrom(c)
	var req transport.CreateIntentRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_intent_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}

	intent, err := h.Svc.CreateIntent(ctx, actor, service.IntentInput{
		OrderID:  req.OrderID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	})
	if err != nil {
		l.Warn("create_intent_error", "error", err)
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, intent)
}

func (h *PaymentHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	actor, _ := authmw.ActorFrom(c)
	var req transport.VerifyRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("verify_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}

	order, err := h.Svc.Verify(ctx, actor, service.VerifyInput{
		OrderID:          req.OrderID,
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
	})
	if err != nil {
		l.Warn("verify_error", "order_id", req.OrderID, "error", err)
		return mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "payment verified",
		"order":   order,
	})
}
