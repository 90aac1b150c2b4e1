package httpserver

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ethnic_shop/internal/export"
	authmw "github.com/Skotchmaster/ethnic_shop/internal/middleware/auth"
	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/internal/order/service"
	"github.com/Skotchmaster/ethnic_shop/internal/order/transport"
	"github.com/Skotchmaster/ethnic_shop/pkg/idempotency"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
	"github.com/Skotchmaster/ethnic_shop/pkg/util"
	"github.com/Skotchmaster/ethnic_shop/pkg/validation"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

// StatusOf maps order service errors onto HTTP status codes.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// MapError hides upstream details behind a generic message.
func MapError(err error) *echo.HTTPError {
	code := StatusOf(err)
	if code >= http.StatusInternalServerError {
		return echo.NewHTTPError(code, http.StatusText(code)).SetInternal(err)
	}
	return echo.NewHTTPError(code, err.Error())
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id is not a valid uuid")
	}
	return id, nil
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	actor, _ := authmw.ActorFrom(c)
	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "validation", "error", err)
		return validation.HTTPError(err)
	}

	order, err := h.Svc.CreateOrder(ctx, actor, service.CreateOrderInput{
		Items:           req.LineItems(),
		ShippingAddress: req.Address(),
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
		Pricing:         req.ClientPricing(),
		IdempotencyKey:  idempotency.Key(c.Request()),
	})
	if err != nil {
		l.Warn("create_order_error", "status", StatusOf(err), "error", err)
		return MapError(err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	actor, _ := authmw.ActorFrom(c)
	order, err := h.Svc.GetOrder(c.Request().Context(), actor, id)
	if err != nil {
		return MapError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	actor, _ := authmw.ActorFrom(c)
	orders, err := h.Svc.ListMine(c.Request().Context(), actor)
	if err != nil {
		return MapError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	actor, _ := authmw.ActorFrom(c)
	var q transport.ListOrdersQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	page := max(q.Page, 1)
	offset, limit := util.Calculate(page, q.Size)

	orders, total, err := h.Svc.ListAll(c.Request().Context(), actor, offset, limit)
	if err != nil {
		return MapError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	actor, _ := authmw.ActorFrom(c)
	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}

	order, err := h.Svc.TransitionStatus(ctx, actor, id, req.Status)
	if err != nil {
		l.Warn("update_status_error", "order_id", id, "target", req.Status, "status", StatusOf(err), "error", err)
		return MapError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	actor, _ := authmw.ActorFrom(c)
	order, err := h.Svc.Cancel(ctx, actor, id)
	if err != nil {
		l.Warn("cancel_order_error", "order_id", id, "status", StatusOf(err), "error", err)
		return MapError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Stats(c echo.Context) error {
	actor, _ := authmw.ActorFrom(c)
	var q transport.StatsQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "days must be a number")
	}
	stats, err := h.Svc.Stats(c.Request().Context(), actor, q.Days)
	if err != nil {
		return MapError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

var orderCSVHeader = []string{"Order ID", "User", "Email", "Total", "Status", "Created At", "Delivered At"}

func (h *OrderHTTP) ExportCSV(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.export_csv")

	actor, _ := authmw.ActorFrom(c)
	rows, err := h.Svc.ExportRows(ctx, actor)
	if err != nil {
		l.Error("order_export_error", "status", StatusOf(err), "error", err)
		return MapError(err)
	}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		created := r.Order.CreatedAt
		records = append(records, []string{
			r.Order.ID.String(),
			r.OwnerName,
			r.OwnerEmail,
			export.Int(r.Order.Pricing.GrandTotal),
			string(r.Order.Status),
			export.Time(&created),
			export.Time(r.Order.DeliveredAt),
		})
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, orderCSVHeader, records); err != nil {
		l.Error("order_export_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot build export")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.Filename("orders", time.Now())))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
