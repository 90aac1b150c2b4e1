package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ethnic_shop/internal/catalog/repo"
	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/internal/testutil"
)

type catalogFixture struct {
	svc   *CatalogService
	admin models.Actor
	user  models.Actor
	other models.Actor
}

func newCatalogFixture(t *testing.T) catalogFixture {
	t.Helper()
	db := testutil.NewDB(t)
	return catalogFixture{
		svc: &CatalogService{
			Repo: &repo.GormRepo{DB: db},
			Now:  func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) },
		},
		admin: testutil.ActorFor(testutil.SeedUser(t, db, "admin", models.RoleAdmin)),
		user:  testutil.ActorFor(testutil.SeedUser(t, db, "asha", models.RoleUser)),
		other: testutil.ActorFor(testutil.SeedUser(t, db, "ravi", models.RoleUser)),
	}
}

func (f catalogFixture) create(t *testing.T, name, category string, price int64) *models.Product {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), f.admin, ProductInput{
		Name:     name,
		Price:    price,
		Category: category,
		Sizes:    []string{"S", "M"},
		Stock:    3,
	})
	require.NoError(t, err)
	return p
}

func TestCreateProduct(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	p := f.create(t, "Banarasi silk", models.CategorySaree, 4500)
	assert.True(t, p.IsInStock)
	assert.Equal(t, int64(1), p.Version)

	_, err := f.svc.CreateProduct(ctx, f.user, ProductInput{Name: "x", Category: models.CategorySaree})
	assert.ErrorIs(t, err, ErrForbidden)

	tests := []struct {
		name string
		in   ProductInput
	}{
		{name: "missing name", in: ProductInput{Category: models.CategoryKurti}},
		{name: "negative price", in: ProductInput{Name: "x", Price: -1, Category: models.CategoryKurti}},
		{name: "unknown category", in: ProductInput{Name: "x", Category: "Hat"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateProduct(ctx, f.admin, tc.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestListProducts_CategoryAndPaging(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	f.create(t, "saree-1", models.CategorySaree, 100)
	f.create(t, "saree-2", models.CategorySaree, 200)
	f.create(t, "kurti-1", models.CategoryKurti, 300)

	page, err := f.svc.ListProducts(ctx, 1, 2, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Pages)

	page, err = f.svc.ListProducts(ctx, 0, 0, models.CategorySaree)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	for _, p := range page.Items {
		assert.Equal(t, models.CategorySaree, p.Category)
	}

	_, err = f.svc.ListProducts(ctx, 1, 10, "Hat")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPatchAndDeleteProduct(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	p := f.create(t, "kurti", models.CategoryKurti, 900)

	price, stock := int64(750), 0
	got, err := f.svc.PatchProduct(ctx, f.admin, p.ID, ProductPatch{Price: &price, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, int64(750), got.Price)
	assert.False(t, got.IsInStock)
	assert.Equal(t, "kurti", got.Name)
	assert.Equal(t, int64(2), got.Version)

	neg := int64(-5)
	_, err = f.svc.PatchProduct(ctx, f.admin, p.ID, ProductPatch{Price: &neg})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.PatchProduct(ctx, f.admin, uuid.New(), ProductPatch{Price: &price})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.svc.DeleteProduct(ctx, f.admin, p.ID))
	assert.ErrorIs(t, f.svc.DeleteProduct(ctx, f.admin, p.ID), ErrNotFound)
	_, err = f.svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviews(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	p := f.create(t, "dupatta", models.CategoryDupatta, 500)

	got, err := f.svc.AddReview(ctx, f.user, p.ID, ReviewInput{Rating: 5, Comment: "lovely"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumReviews)

	_, err = f.svc.AddReview(ctx, f.user, p.ID, ReviewInput{Rating: 4, Comment: "again"})
	assert.ErrorIs(t, err, ErrConflict)

	got, err = f.svc.AddReview(ctx, f.other, p.ID, ReviewInput{Rating: 2, Comment: "meh"})
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumReviews)
	assert.InDelta(t, 3.5, got.Rating, 0.001)

	_, err = f.svc.AddReview(ctx, f.user, p.ID, ReviewInput{Rating: 6, Comment: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	reviews, err := f.svc.ListReviews(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	mine := reviews[0]
	require.Equal(t, f.user.UserID, mine.UserID)

	_, err = f.svc.UpdateReview(ctx, f.other, p.ID, mine.ID, ReviewInput{Rating: 1, Comment: "hijack"})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err = f.svc.UpdateReview(ctx, f.user, p.ID, mine.ID, ReviewInput{Rating: 4, Comment: "still nice"})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got.Rating, 0.001)

	_, err = f.svc.DeleteReview(ctx, f.other, p.ID, mine.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err = f.svc.DeleteReview(ctx, f.user, p.ID, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumReviews)
	assert.InDelta(t, 2.0, got.Rating, 0.001)

	_, err = f.svc.DeleteReview(ctx, f.user, p.ID, mine.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
