package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
)

// NewDB opens an isolated in-memory database with the production schema.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to ":memory:" is its own database
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func SeedUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()

	u := models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@shop.test", name, uuid.NewString()[:8]),
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func SeedProduct(t *testing.T, db *gorm.DB, name string, price int64) models.Product {
	t.Helper()

	p := models.Product{
		Name:        name,
		Description: name + " description",
		Price:       price,
		Category:    models.CategorySaree,
		Sizes:       []string{"S", "M"},
		Colors:      []string{"red"},
		Stock:       10,
		IsInStock:   true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func ActorFor(u models.User) models.Actor {
	return models.Actor{UserID: u.ID, Role: u.Role, Email: u.Email, Name: u.Name}
}
