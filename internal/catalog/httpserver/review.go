package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ethnic_shop/internal/catalog/service"
	"github.com/Skotchmaster/ethnic_shop/internal/catalog/transport"
	authmw "github.com/Skotchmaster/ethnic_shop/internal/middleware/auth"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
	"github.com/Skotchmaster/ethnic_shop/pkg/validation"
)

func (h *CatalogHTTP) ListReviews(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	reviews, err := h.Svc.ListReviews(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func bindReview(c echo.Context) (service.ReviewInput, error) {
	var req transport.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return service.ReviewInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return service.ReviewInput{}, validation.HTTPError(err)
	}
	return service.ReviewInput{Rating: req.Rating, Comment: req.Comment}, nil
}

func (h *CatalogHTTP) AddReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.add")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	in, err := bindReview(c)
	if err != nil {
		return err
	}
	actor, _ := authmw.ActorFrom(c)

	p, err := h.Svc.AddReview(ctx, actor, id, in)
	if err != nil {
		l.Warn("review_add_error", "product_id", id, "error", err)
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) UpdateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.update")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	reviewID, err := parseID(c, "reviewId")
	if err != nil {
		return err
	}
	in, err := bindReview(c)
	if err != nil {
		return err
	}
	actor, _ := authmw.ActorFrom(c)

	p, err := h.Svc.UpdateReview(ctx, actor, id, reviewID, in)
	if err != nil {
		l.Warn("review_update_error", "product_id", id, "review_id", reviewID, "error", err)
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteReview(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	reviewID, err := parseID(c, "reviewId")
	if err != nil {
		return err
	}
	actor, _ := authmw.ActorFrom(c)

	p, err := h.Svc.DeleteReview(c.Request().Context(), actor, id, reviewID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}
