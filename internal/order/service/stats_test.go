package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/internal/testutil"
)

func seedOrder(t *testing.T, db *gorm.DB, owner uuid.UUID, status models.OrderStatus, total int64, createdAt time.Time, paid bool) {
	t.Helper()
	o := models.Order{
		OwnerID:         owner,
		LineItems:       []models.LineItem{{ProductID: uuid.New(), Name: "x", Quantity: 1, UnitPrice: total}},
		ShippingAddress: models.ShippingAddress{Address: "a", City: "c", PostalCode: "p", Country: "IN"},
		PaymentMethod:   models.PaymentMethodCOD,
		Pricing:         models.Pricing{ItemsTotal: total, GrandTotal: total},
		Status:          status,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	if paid {
		at := createdAt
		o.PaidAt = &at
		o.PaymentResult = &models.PaymentResult{ExternalPaymentID: uuid.NewString(), VerifiedAt: at}
	}
	require.NoError(t, db.Create(&o).Error)
}

func TestStatsAggregates(t *testing.T) {
	t.Parallel()
	f := newOrderFixture(t)
	ctx := context.Background()
	owner := f.owner.ID

	seedOrder(t, f.db, owner, models.OrderStatusPending, 1000, fixedNow.Add(-time.Hour), true)
	seedOrder(t, f.db, owner, models.OrderStatusPending, 200, fixedNow.Add(-2*time.Hour), false)
	seedOrder(t, f.db, owner, models.OrderStatusDelivered, 300, fixedNow.AddDate(0, 0, -1), false)
	seedOrder(t, f.db, owner, models.OrderStatusCancelled, 400, fixedNow.AddDate(0, 0, -3), true)
	seedOrder(t, f.db, owner, models.OrderStatusShipped, 500, fixedNow.AddDate(0, 0, -10), false)

	_, err := f.svc.Stats(ctx, testutil.ActorFor(f.owner), 7)
	assert.ErrorIs(t, err, ErrForbidden)

	st, err := f.svc.Stats(ctx, testutil.ActorFor(f.admin), 0)
	require.NoError(t, err)

	assert.Equal(t, int64(5), st.TotalOrders)
	assert.Equal(t, int64(2400), st.TotalRevenue)
	assert.Equal(t, int64(1300), st.CollectedRevenue, "paid pending + delivered, cancelled excluded")
	assert.Equal(t, map[string]int64{"Pending": 2, "Shipped": 1, "Delivered": 1, "Cancelled": 1}, st.StatusCounts)

	require.Len(t, st.PerDay, 7)
	assert.Equal(t, "2026-10-10", st.PerDay[0].Date)
	assert.Equal(t, "2026-10-16", st.PerDay[6].Date)
	assert.Equal(t, DayStat{Date: "2026-10-16", Count: 2, Sales: 1200}, st.PerDay[6])
	assert.Equal(t, DayStat{Date: "2026-10-15", Count: 1, Sales: 300}, st.PerDay[5])
	assert.Equal(t, DayStat{Date: "2026-10-13", Count: 1, Sales: 400}, st.PerDay[3])
	assert.Equal(t, DayStat{Date: "2026-10-14", Count: 0, Sales: 0}, st.PerDay[4])

	var windowCount int64
	for _, d := range st.PerDay {
		windowCount += d.Count
	}
	assert.Equal(t, int64(4), windowCount, "order from 10 days ago is outside the window")
}

func TestStatsEmptyStoreAndBounds(t *testing.T) {
	t.Parallel()
	f := newOrderFixture(t)
	ctx := context.Background()
	admin := testutil.ActorFor(f.admin)

	st, err := f.svc.Stats(ctx, admin, 3)
	require.NoError(t, err)
	assert.Zero(t, st.TotalOrders)
	assert.Zero(t, st.TotalRevenue)
	assert.Len(t, st.PerDay, 3)
	assert.Equal(t, int64(0), st.StatusCounts["Pending"])

	_, err = f.svc.Stats(ctx, admin, 1000)
	assert.ErrorIs(t, err, ErrValidation)
}

type stubDirectory map[uuid.UUID]models.User

func (d stubDirectory) UsersByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := map[uuid.UUID]models.User{}
	for _, id := range ids {
		if u, ok := d[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func TestExportRowsResolvesOwners(t *testing.T) {
	t.Parallel()
	f := newOrderFixture(t)
	f.svc.Users = stubDirectory{f.owner.ID: f.owner}
	o := f.createPending(t)

	rows, err := f.svc.ExportRows(context.Background(), testutil.ActorFor(f.admin))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, o.ID, rows[0].Order.ID)
	assert.Equal(t, f.owner.Name, rows[0].OwnerName)
	assert.Equal(t, f.owner.Email, rows[0].OwnerEmail)

	_, err = f.svc.ExportRows(context.Background(), testutil.ActorFor(f.owner))
	assert.ErrorIs(t, err, ErrForbidden)
}
