package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
)

var (
	ErrNotFound = errors.New("product not found")
	ErrStale    = errors.New("product version is stale")
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var items []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListProducts pages through products newest first, optionally restricted to
// one category.
func (r *GormRepo) ListProducts(ctx context.Context, offset, limit int, category string) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) AllProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

var editableColumns = []string{
	"name", "description", "price", "category", "sizes", "colors",
	"fabric", "images", "stock", "is_in_stock",
}

// SaveProduct writes the editable product fields if the stored version is still prevVersion.
func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product, prevVersion int64) error {
	return r.conditionalUpdate(ctx, p, prevVersion, editableColumns...)
}

// SaveReviews replaces the embedded reviews together with the rating aggregate.
func (r *GormRepo) SaveReviews(ctx context.Context, p *models.Product, prevVersion int64) error {
	return r.conditionalUpdate(ctx, p, prevVersion, "reviews", "rating", "num_reviews")
}

func (r *GormRepo) conditionalUpdate(ctx context.Context, p *models.Product, prevVersion int64, cols ...string) error {
	p.Version = prevVersion + 1
	selected := append(append([]string{}, cols...), "version", "updated_at")
	res := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND version = ?", p.ID, prevVersion).
		Select(selected).
		Updates(p)
	if res.Error != nil {
		p.Version = prevVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		p.Version = prevVersion
		return ErrStale
	}
	return nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
