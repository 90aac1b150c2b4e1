package httpserver

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ethnic_shop/internal/catalog/service"
	"github.com/Skotchmaster/ethnic_shop/internal/catalog/transport"
	"github.com/Skotchmaster/ethnic_shop/internal/export"
	authmw "github.com/Skotchmaster/ethnic_shop/internal/middleware/auth"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
	"github.com/Skotchmaster/ethnic_shop/pkg/validation"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func mapError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, name+" is not a valid uuid")
	}
	return id, nil
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	var q transport.ListProductsQuery
	if err := c.Bind(&q); err != nil {
		l.Warn("get_products_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}

	page, err := h.Svc.ListProducts(ctx, q.Page, q.Size, q.Category)
	if err != nil {
		l.Warn("get_products_error", "error", err)
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": page.Items,
		"meta": map[string]any{
			"page":        page.Page,
			"size":        page.Size,
			"total":       page.Total,
			"total_pages": page.Pages,
			"has_prev":    page.Page > 1,
			"has_next":    int64(page.Page) < page.Pages,
		},
	})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Svc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	actor, _ := authmw.ActorFrom(c)
	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}

	p, err := h.Svc.CreateProduct(ctx, actor, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Sizes:       req.Sizes,
		Colors:      req.Colors,
		Fabric:      req.Fabric,
		Images:      req.Images,
		Stock:       req.Stock,
		IsInStock:   req.IsInStock,
	})
	if err != nil {
		l.Warn("product_create_error", "error", err)
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	actor, _ := authmw.ActorFrom(c)
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validation.HTTPError(err)
	}

	p, err := h.Svc.PatchProduct(ctx, actor, id, service.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Sizes:       req.Sizes,
		Colors:      req.Colors,
		Fabric:      req.Fabric,
		Images:      req.Images,
		Stock:       req.Stock,
		IsInStock:   req.IsInStock,
	})
	if err != nil {
		l.Warn("product_patch_error", "product_id", id, "error", err)
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	actor, _ := authmw.ActorFrom(c)
	if err := h.Svc.DeleteProduct(c.Request().Context(), actor, id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

var productCSVHeader = []string{"Product ID", "Name", "Category", "Price", "Stock", "Num Reviews", "Ratings", "Created At"}

func (h *CatalogHTTP) ExportCSV(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.export_csv")

	actor, _ := authmw.ActorFrom(c)
	items, err := h.Svc.AllProducts(ctx, actor)
	if err != nil {
		l.Error("product_export_error", "error", err)
		return mapError(err)
	}

	rows := make([][]string, 0, len(items))
	for _, p := range items {
		created := p.CreatedAt
		rows = append(rows, []string{
			p.ID.String(),
			p.Name,
			p.Category,
			export.Int(p.Price),
			strconv.Itoa(p.Stock),
			strconv.Itoa(p.NumReviews),
			strconv.FormatFloat(p.Rating, 'f', 1, 64),
			export.Time(&created),
		})
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, productCSVHeader, rows); err != nil {
		l.Error("product_export_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot build export")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.Filename("products", time.Now())))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
