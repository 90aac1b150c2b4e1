package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
)

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
	EventOrderPaid          = "order_paid"
)

type Event struct {
	Type           string             `json:"type"`
	OrderID        string             `json:"order_id"`
	OwnerID        string             `json:"owner_id"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	GrandTotal     int64              `json:"grand_total"`
	PaymentMethod  string             `json:"payment_method"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

func newEvent(typ string, o *models.Order, previous models.OrderStatus) Event {
	return Event{
		Type:           typ,
		OrderID:        o.ID.String(),
		OwnerID:        o.OwnerID.String(),
		Status:         o.Status,
		PreviousStatus: previous,
		GrandTotal:     o.Pricing.GrandTotal,
		PaymentMethod:  string(o.PaymentMethod),
		OccurredAt:     o.UpdatedAt,
	}
}

// publish is best effort: the order write has already committed.
func (s *OrderService) publish(ctx context.Context, ev Event) {
	if s.Events == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.now()
	}
	if err := s.Events.PublishEvent(ctx, ev.OrderID, ev); err != nil {
		logging.FromContext(ctx).Warn("order_event_publish_failed", "type", ev.Type, "order_id", ev.OrderID, "error", err)
	}
}
