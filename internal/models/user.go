package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"          json:"id"`
	Name         string      `gorm:"not null"                      json:"name"`
	Email        string      `gorm:"uniqueIndex;not null"          json:"email"`
	PasswordHash string      `gorm:"not null"                      json:"-"`
	Role         string      `gorm:"type:varchar(16);not null"     json:"role"`
	Cart         []CartLine  `gorm:"serializer:json;type:text"     json:"cart"`
	Wishlist     []uuid.UUID `gorm:"serializer:json;type:text"     json:"wishlist"`
	Version      int64       `gorm:"not null;default:1"            json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type CartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	Price     int64     `json:"price"`
}

func (l CartLine) SameKey(productID uuid.UUID, size, color string) bool {
	return l.ProductID == productID && l.Size == size && l.Color == color
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Version == 0 {
		u.Version = 1
	}
	return nil
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	TokenHash string    `gorm:"uniqueIndex;not null"   json:"-"`
	JTI       string    `gorm:"uniqueIndex;not null"   json:"jti"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"               json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
