package service

import (
	"fmt"
	"slices"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
)

var orderStateTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped: {models.OrderStatusDelivered},
}

func canTransition(from, to models.OrderStatus) bool {
	return slices.Contains(orderStateTransitions[from], to)
}

// checkTransition decides whether actor may move order to target. It does not
// mutate the order.
func checkTransition(order *models.Order, target models.OrderStatus, actor models.Actor) error {
	admin := actor.IsAdmin()
	if !admin && !actor.Owns(order.OwnerID) {
		return fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}

	from := order.Status
	if from.Terminal() {
		return fmt.Errorf("%w: order is already %s", ErrInvalidTransition, from)
	}
	if from == target {
		return fmt.Errorf("%w: order is already %s", ErrInvalidTransition, from)
	}

	if !admin {
		if target != models.OrderStatusCancelled {
			return fmt.Errorf("%w: only administrators can set status %s", ErrForbidden, target)
		}
		if from != models.OrderStatusPending {
			return fmt.Errorf("%w: only pending orders can be cancelled", ErrInvalidTransition)
		}
		return nil
	}

	if !canTransition(from, target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
	}
	return nil
}
