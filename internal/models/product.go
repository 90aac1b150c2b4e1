package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CategorySaree   = "Saree"
	CategoryKurti   = "Kurti"
	CategoryDress   = "Dress"
	CategoryDupatta = "Dupatta"
)

var Categories = []string{CategorySaree, CategoryKurti, CategoryDress, CategoryDupatta}

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	Name        string    `gorm:"not null"                    json:"name"`
	Description string    `gorm:"not null"                    json:"description"`
	Price       int64     `gorm:"not null"                    json:"price"`
	Category    string    `gorm:"type:varchar(16);index;not null" json:"category"`
	Sizes       []string  `gorm:"serializer:json;type:text"   json:"sizes"`
	Colors      []string  `gorm:"serializer:json;type:text"   json:"colors"`
	Fabric      string    `json:"fabric"`
	Images      []string  `gorm:"serializer:json;type:text"   json:"images"`
	Stock       int       `gorm:"not null;default:0"          json:"stock"`
	IsInStock   bool      `gorm:"not null"                    json:"is_in_stock"`
	Rating      float64   `gorm:"not null;default:0"          json:"rating"`
	NumReviews  int       `gorm:"not null;default:0"          json:"num_reviews"`
	Reviews     []Review  `gorm:"serializer:json;type:text"   json:"reviews"`
	Version     int64     `gorm:"not null;default:1"          json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Review struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}

// RecomputeRating refreshes the denormalised review aggregate.
func (p *Product) RecomputeRating() {
	p.NumReviews = len(p.Reviews)
	if p.NumReviews == 0 {
		p.Rating = 0
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Rating = float64(sum) / float64(p.NumReviews)
}
