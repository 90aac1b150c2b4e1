package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/pkg/db"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStale means the row changed since it was read.
	ErrStale     = errors.New("order version is stale")
	ErrDuplicate = errors.New("gateway reference already used")
)

type GormRepo struct {
	DB *gorm.DB
}

// CreateOrder inserts order and runs inTx in the same transaction. Nothing is
// persisted if inTx fails.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order, inTx func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if inTx != nil {
			return inTx(tx)
		}
		return nil
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListAll returns every order newest first. limit <= 0 means no limit.
func (r *GormRepo) ListAll(ctx context.Context, offset, limit int) ([]models.Order, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.DB.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus writes status and deliveredAt together, guarded by prevVersion.
func (r *GormRepo) UpdateStatus(ctx context.Context, o *models.Order, prevVersion int64) error {
	return r.conditionalUpdate(ctx, o, prevVersion, "status", "delivered_at")
}

// AttachPayment writes paymentResult and paidAt together, guarded by prevVersion.
func (r *GormRepo) AttachPayment(ctx context.Context, o *models.Order, prevVersion int64) error {
	return r.conditionalUpdate(ctx, o, prevVersion, "payment_result", "paid_at", "external_payment_id")
}

// BindGatewayOrder records the gateway intent id, guarded by prevVersion.
func (r *GormRepo) BindGatewayOrder(ctx context.Context, o *models.Order, prevVersion int64) error {
	return r.conditionalUpdate(ctx, o, prevVersion, "gateway_order_id")
}

func (r *GormRepo) conditionalUpdate(ctx context.Context, o *models.Order, prevVersion int64, cols ...string) error {
	o.Version = prevVersion + 1
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", o.ID, prevVersion).
		Select(append(cols, "version", "updated_at")).
		Updates(o)
	if res.Error != nil {
		o.Version = prevVersion
		if db.IsDuplicate(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		o.Version = prevVersion
		return ErrStale
	}
	return nil
}

type Totals struct {
	TotalOrders      int64
	GrossRevenue     int64
	CollectedRevenue int64
}

func (r *GormRepo) Totals(ctx context.Context) (Totals, error) {
	var all struct {
		Count int64
		Sum   int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COUNT(*) AS count, COALESCE(SUM(grand_total), 0) AS sum").
		Scan(&all).Error; err != nil {
		return Totals{}, err
	}

	var collected struct{ Sum int64 }
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(grand_total), 0) AS sum").
		Where("status <> ? AND (paid_at IS NOT NULL OR status = ?)",
			models.OrderStatusCancelled, models.OrderStatusDelivered).
		Scan(&collected).Error; err != nil {
		return Totals{}, err
	}

	return Totals{TotalOrders: all.Count, GrossRevenue: all.Sum, CollectedRevenue: collected.Sum}, nil
}

func (r *GormRepo) StatusCounts(ctx context.Context) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

type DayRow struct {
	CreatedAt  time.Time
	GrandTotal int64
}

func (r *GormRepo) CreatedSince(ctx context.Context, since time.Time) ([]DayRow, error) {
	var rows []DayRow
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("created_at, grand_total").
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
