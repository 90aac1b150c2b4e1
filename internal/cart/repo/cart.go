package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrStale        = errors.New("user version is stale")
)

// GormRepo stores the cart and wishlist embedded in the user row.
type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) SaveCart(ctx context.Context, u *models.User, prevVersion int64) error {
	return r.conditionalUpdate(ctx, u, prevVersion, "cart")
}

func (r *GormRepo) SaveWishlist(ctx context.Context, u *models.User, prevVersion int64) error {
	return r.conditionalUpdate(ctx, u, prevVersion, "wishlist")
}

func (r *GormRepo) conditionalUpdate(ctx context.Context, u *models.User, prevVersion int64, col string) error {
	u.Version = prevVersion + 1
	res := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND version = ?", u.ID, prevVersion).
		Select(col, "version", "updated_at").
		Updates(u)
	if res.Error != nil {
		u.Version = prevVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		u.Version = prevVersion
		return ErrStale
	}
	return nil
}

// ClearCart empties the cart unconditionally. When tx is non-nil the write
// joins that transaction.
func (r *GormRepo) ClearCart(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	db := tx
	if db == nil {
		db = r.DB
	}
	res := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]any{
			"cart":    gorm.Expr("?", "[]"),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
