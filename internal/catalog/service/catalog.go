package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ethnic_shop/internal/catalog/repo"
	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
	"github.com/Skotchmaster/ethnic_shop/pkg/util"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

const maxWriteAttempts = 3

type CatalogService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

type Page struct {
	Items []models.Product `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
	Pages int64            `json:"pages"`
}

type ProductInput struct {
	Name        string
	Description string
	Price       int64
	Category    string
	Sizes       []string
	Colors      []string
	Fabric      string
	Images      []string
	Stock       int
	IsInStock   *bool
}

// ProductPatch carries only the fields being changed.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *int64
	Category    *string
	Sizes       []string
	Colors      []string
	Fabric      *string
	Images      []string
	Stock       *int
	IsInStock   *bool
}

func (s *CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validCategory(c string) bool { return slices.Contains(models.Categories, c) }

func notFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *CatalogService) ListProducts(ctx context.Context, page, size int, category string) (*Page, error) {
	if category != "" && !validCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}
	if page < 1 {
		page = 1
	}
	offset, size := util.Calculate(page, size)
	total, items, err := s.Repo.ListProducts(ctx, offset, size, category)
	if err != nil {
		return nil, err
	}
	return &Page{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: (total + int64(size) - 1) / int64(size),
	}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	return p, notFound(err)
}

func validateProduct(p *models.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case p.Price < 0:
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	case !validCategory(p.Category):
		return fmt.Errorf("%w: category must be one of %s", ErrValidation, strings.Join(models.Categories, ", "))
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor models.Actor, in ProductInput) (*models.Product, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Sizes:       nonNil(in.Sizes),
		Colors:      nonNil(in.Colors),
		Fabric:      in.Fabric,
		Images:      nonNil(in.Images),
		Stock:       in.Stock,
		IsInStock:   in.Stock > 0,
		Reviews:     []models.Review{},
	}
	if in.IsInStock != nil {
		p.IsInStock = *in.IsInStock
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("product_created", "product_id", p.ID, "by", actor.UserID)
	return p, nil
}

func (patch ProductPatch) apply(p *models.Product) {
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Sizes != nil {
		p.Sizes = patch.Sizes
	}
	if patch.Colors != nil {
		p.Colors = patch.Colors
	}
	if patch.Fabric != nil {
		p.Fabric = *patch.Fabric
	}
	if patch.Images != nil {
		p.Images = patch.Images
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
		if patch.IsInStock == nil {
			p.IsInStock = p.Stock > 0
		}
	}
	if patch.IsInStock != nil {
		p.IsInStock = *patch.IsInStock
	}
}

func (s *CatalogService) PatchProduct(ctx context.Context, actor models.Actor, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.mutate(ctx, id, func(p *models.Product) error {
		patch.apply(p)
		return validateProduct(p)
	}, s.Repo.SaveProduct)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err)
	}
	logging.FromContext(ctx).Info("product_deleted", "product_id", id, "by", actor.UserID)
	return nil
}

// AllProducts feeds the admin CSV export.
func (s *CatalogService) AllProducts(ctx context.Context, actor models.Actor) ([]models.Product, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.Repo.AllProducts(ctx)
}

func (s *CatalogService) mutate(ctx context.Context, id uuid.UUID, fn func(p *models.Product) error, save func(context.Context, *models.Product, int64) error) (*models.Product, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		p, err := s.Repo.GetProduct(ctx, id)
		if err != nil {
			return nil, notFound(err)
		}
		prev := p.Version
		if err := fn(p); err != nil {
			return nil, err
		}
		err = save(ctx, p, prev)
		if errors.Is(err, repo.ErrStale) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: product changed concurrently, retry", ErrConflict)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
