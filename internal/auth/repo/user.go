package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/pkg/db"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("email already registered")
)

type GormRepo struct {
	DB *gorm.DB
}

// CreateUserIfNotExists inserts u unless the email is taken.
func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	res := r.DB.WithContext(ctx).Where("email = ?", u.Email).FirstOrCreate(u)
	if res.Error != nil {
		if db.IsDuplicate(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *GormRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) UsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := r.DB.WithContext(ctx).
		Select("id", "name", "email", "role").
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *GormRepo) UpdateProfile(ctx context.Context, u *models.User) error {
	err := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", u.ID).
		Select("name", "email", "password_hash", "role", "updated_at").
		Updates(u).Error
	if db.IsDuplicate(err) {
		return ErrDuplicate
	}
	return err
}
