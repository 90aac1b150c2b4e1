package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
)

var ErrTokenRevoked = errors.New("refresh token expired or revoked")

func (r *GormRepo) SaveRefresh(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func refreshUsable(db *gorm.DB, jti, tokenHash string, now time.Time) error {
	var t models.RefreshToken
	if err := db.Where("jti = ?", jti).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenRevoked
		}
		return err
	}
	if t.Revoked || t.TokenHash != tokenHash || !now.Before(t.ExpiresAt) {
		return ErrTokenRevoked
	}
	return nil
}

func markRevoked(db *gorm.DB, jti string) error {
	return db.Model(&models.RefreshToken{}).
		Where("jti = ?", jti).
		Update("revoked", true).Error
}

// RotateRefreshToken revokes oldJTI and stores newToken atomically.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, oldHash string, newToken *models.RefreshToken, now time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := refreshUsable(tx, oldJTI, oldHash, now); err != nil {
			return err
		}
		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ?", oldJTI, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenRevoked
		}
		return tx.Create(newToken).Error
	})
}

func (r *GormRepo) RevokeRefresh(ctx context.Context, jti string) error {
	return markRevoked(r.DB.WithContext(ctx), jti)
}
