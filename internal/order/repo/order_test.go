package repo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/internal/testutil"
	"github.com/Skotchmaster/ethnic_shop/pkg/db"
)

func newOrder(owner uuid.UUID, grand int64, created time.Time) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		OwnerID:         owner,
		LineItems:       []models.LineItem{{ProductID: uuid.New(), Name: "Kurti", Quantity: 1, UnitPrice: grand}},
		ShippingAddress: models.ShippingAddress{Address: "4 Hill Rd", City: "Mumbai", PostalCode: "400050", Country: "IN"},
		PaymentMethod:   models.PaymentMethodCOD,
		Pricing:         models.Pricing{ItemsTotal: grand, GrandTotal: grand},
		Status:          models.OrderStatusPending,
		Version:         1,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func exerciseRepo(t *testing.T, r *GormRepo) {
	t.Helper()
	ctx := context.Background()
	owner := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	o := newOrder(owner, 1365, now)
	require.NoError(t, r.CreateOrder(ctx, o, nil))

	got, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Pricing, got.Pricing)
	assert.Equal(t, "Mumbai", got.ShippingAddress.City)

	_, err = r.GetOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	got.Status = models.OrderStatusShipped
	require.NoError(t, r.UpdateStatus(ctx, got, 1))
	assert.Equal(t, int64(2), got.Version)

	stale := newOrder(owner, 0, now)
	stale.ID = o.ID
	stale.Status = models.OrderStatusCancelled
	assert.ErrorIs(t, r.UpdateStatus(ctx, stale, 1), ErrStale)
	assert.Equal(t, int64(1), stale.Version, "version restored after a lost race")

	reread, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, reread.Status)
}

func TestGormRepoSQLite(t *testing.T) {
	t.Parallel()
	exerciseRepo(t, &GormRepo{DB: testutil.NewDB(t)})
}

func TestCreateOrderRollsBack(t *testing.T) {
	t.Parallel()
	r := &GormRepo{DB: testutil.NewDB(t)}
	ctx := context.Background()

	boom := errors.New("cart clear failed")
	o := newOrder(uuid.New(), 500, time.Now().UTC())
	err := r.CreateOrder(ctx, o, func(*gorm.DB) error { return boom })
	require.ErrorIs(t, err, boom)

	_, err = r.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAggregates(t *testing.T) {
	t.Parallel()
	r := &GormRepo{DB: testutil.NewDB(t)}
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	owner := uuid.New()

	pending := newOrder(owner, 100, now.AddDate(0, 0, -10))
	paid := newOrder(owner, 200, now.AddDate(0, 0, -1))
	paidAt := now
	paid.PaidAt = &paidAt
	cancelled := newOrder(owner, 400, now)
	cancelled.Status = models.OrderStatusCancelled
	delivered := newOrder(owner, 800, now)
	delivered.Status = models.OrderStatusDelivered

	for _, o := range []*models.Order{pending, paid, cancelled, delivered} {
		require.NoError(t, r.CreateOrder(ctx, o, nil))
	}

	totals, err := r.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{TotalOrders: 4, GrossRevenue: 1500, CollectedRevenue: 1000}, totals)

	counts, err := r.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[models.OrderStatusPending])
	assert.Equal(t, int64(1), counts[models.OrderStatusCancelled])
	assert.Zero(t, counts[models.OrderStatusShipped])

	rows, err := r.CreatedSince(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	all, total, err := r.ListAll(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 2)
}

func TestGormRepoPostgres(t *testing.T) {
	dsn := os.Getenv("ORDER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ORDER_TEST_DATABASE_URL is required for tests")
	}

	gdb, err := db.Open(context.Background(), db.DriverPgx, dsn)
	require.NoError(t, err)
	require.NoError(t, models.Migrate(gdb))
	t.Cleanup(func() {
		require.NoError(t, gdb.Exec("TRUNCATE TABLE orders").Error)
	})

	exerciseRepo(t, &GormRepo{DB: gdb})
}
