package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ethnic_shop/internal/cart/service"
	"github.com/Skotchmaster/ethnic_shop/internal/cart/transport"
	authmw "github.com/Skotchmaster/ethnic_shop/internal/middleware/auth"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
	"github.com/Skotchmaster/ethnic_shop/pkg/validation"
)

type CartHTTP struct {
	Svc *service.CartService
}

func mapError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return validation.HTTPError(err)
	}
	return nil
}

func key(r transport.CartLineRequest) service.LineKey {
	return service.LineKey{ProductID: r.ProductID, Size: r.Size, Color: r.Color}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	actor, _ := authmw.ActorFrom(c)
	lines, err := h.Svc.GetCart(c.Request().Context(), actor.UserID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	actor, _ := authmw.ActorFrom(c)
	var req transport.AddToCartRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}

	lines, err := h.Svc.AddToCart(ctx, actor.UserID, service.AddInput{LineKey: key(req.CartLineRequest), Quantity: qty})
	if err != nil {
		l.Warn("cart_add_error", "product_id", req.ProductID, "error", err)
		return mapError(err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	actor, _ := authmw.ActorFrom(c)
	var req transport.UpdateCartRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	lines, err := h.Svc.UpdateQuantity(c.Request().Context(), actor.UserID, key(req.CartLineRequest), req.Quantity)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	actor, _ := authmw.ActorFrom(c)
	var req transport.CartLineRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	lines, err := h.Svc.RemoveFromCart(c.Request().Context(), actor.UserID, key(req))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	actor, _ := authmw.ActorFrom(c)
	if err := h.Svc.ClearAll(ctx, actor.UserID); err != nil {
		logging.FromContext(ctx).Error("cart_clear_error", "status", 500, "error", err)
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) GetWishlist(c echo.Context) error {
	actor, _ := authmw.ActorFrom(c)
	items, err := h.Svc.GetWishlist(c.Request().Context(), actor.UserID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CartHTTP) AddToWishlist(c echo.Context) error {
	actor, _ := authmw.ActorFrom(c)
	var req transport.WishlistRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ids, err := h.Svc.AddToWishlist(c.Request().Context(), actor.UserID, req.ProductID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, ids)
}

func (h *CartHTTP) RemoveFromWishlist(c echo.Context) error {
	actor, _ := authmw.ActorFrom(c)
	var req transport.WishlistRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ids, err := h.Svc.RemoveFromWishlist(c.Request().Context(), actor.UserID, req.ProductID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, ids)
}
