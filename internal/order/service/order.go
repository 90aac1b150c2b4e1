package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/internal/order/pricing"
	"github.com/Skotchmaster/ethnic_shop/internal/order/repo"
	"github.com/Skotchmaster/ethnic_shop/pkg/idempotency"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
	"github.com/Skotchmaster/ethnic_shop/pkg/metrics"
	"github.com/Skotchmaster/ethnic_shop/pkg/mykafka"
)

const maxWriteAttempts = 3

// CartClearer empties a user's cart inside the checkout transaction.
type CartClearer interface {
	ClearCart(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

// UserDirectory resolves owner names and emails for exports.
type UserDirectory interface {
	UsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

// ProductCatalog supplies the current catalog price for every line item.
type ProductCatalog interface {
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// OrderService owns every write to an order: checkout, the status guard and
// payment settlement.
type OrderService struct {
	Repo      *repo.GormRepo
	Cart      CartClearer
	Users     UserDirectory
	Products  ProductCatalog
	Pricing   pricing.Rule
	Idem      idempotency.Store
	Events    mykafka.Publisher
	StatsDays int
	Now       func() time.Time
}

// CreateOrderInput is the checkout submission. Item prices must match the
// catalog; names and images are taken from the catalog.
type CreateOrderInput struct {
	Items           []models.LineItem
	ShippingAddress models.ShippingAddress
	PaymentMethod   models.PaymentMethod
	// Pricing is optional; when present it must equal the server quote.
	Pricing        *models.Pricing
	IdempotencyKey string
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validateCreate(in CreateOrderInput) error {
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: at least one line item is required", ErrValidation)
	}
	if len(in.Items) > pricing.MaxLineItems {
		return fmt.Errorf("%w: at most %d line items", ErrValidation, pricing.MaxLineItems)
	}
	for i, it := range in.Items {
		if it.ProductID == uuid.Nil {
			return fmt.Errorf("%w: items[%d].product_id required", ErrValidation, i)
		}
		if it.Quantity <= 0 || it.Quantity > pricing.MaxQuantity {
			return fmt.Errorf("%w: items[%d].quantity must be between 1 and %d", ErrValidation, i, pricing.MaxQuantity)
		}
		if it.UnitPrice < 0 || it.UnitPrice > pricing.MaxUnitPrice {
			return fmt.Errorf("%w: items[%d].unit_price must be between 0 and %d", ErrValidation, i, int64(pricing.MaxUnitPrice))
		}
	}

	a := in.ShippingAddress
	if strings.TrimSpace(a.Address) == "" || strings.TrimSpace(a.City) == "" ||
		strings.TrimSpace(a.PostalCode) == "" || strings.TrimSpace(a.Country) == "" {
		return fmt.Errorf("%w: shipping address is incomplete", ErrValidation)
	}
	if !in.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unsupported payment method %q", ErrValidation, in.PaymentMethod)
	}
	return nil
}

func (s *OrderService) CreateOrder(ctx context.Context, actor models.Actor, in CreateOrderInput) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create", "user_id", actor.UserID)

	if actor.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing actor", ErrForbidden)
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	items, err := s.catalogItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	quote, err := s.Pricing.Quote(items)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !pricing.Consistent(quote) {
		return nil, fmt.Errorf("%w: order totals are out of range", ErrValidation)
	}
	if in.Pricing != nil {
		if !pricing.Consistent(*in.Pricing) {
			return nil, fmt.Errorf("%w: pricing totals are inconsistent", ErrValidation)
		}
		if *in.Pricing != quote {
			return nil, fmt.Errorf("%w: pricing does not match quote %+v", ErrValidation, quote)
		}
	}

	scope := "checkout:" + actor.UserID.String()
	keyed := in.IdempotencyKey != "" && s.Idem != nil
	if keyed {
		if id, ok, err := s.Idem.Recall(ctx, scope, in.IdempotencyKey); err != nil {
			return nil, fmt.Errorf("%w: idempotency store: %v", ErrUpstream, err)
		} else if ok {
			orderID, perr := uuid.Parse(id)
			if perr == nil {
				l.Info("checkout_replayed", "order_id", orderID)
				return s.getOwned(ctx, actor, orderID)
			}
		}
		locked, err := s.Idem.TryLock(ctx, scope, in.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("%w: idempotency store: %v", ErrUpstream, err)
		}
		if !locked {
			return nil, fmt.Errorf("%w: checkout with this idempotency key is in progress", ErrConflict)
		}
	}

	now := s.now()
	order := &models.Order{
		ID:              uuid.New(),
		OwnerID:         actor.UserID,
		LineItems:       items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Pricing:         quote,
		Status:          models.OrderStatusPending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var clearCart func(tx *gorm.DB) error
	if s.Cart != nil {
		clearCart = func(tx *gorm.DB) error { return s.Cart.ClearCart(ctx, tx, actor.UserID) }
	}

	if err := s.Repo.CreateOrder(ctx, order, clearCart); err != nil {
		if keyed {
			if uerr := s.Idem.Unlock(ctx, scope, in.IdempotencyKey); uerr != nil {
				l.Warn("idempotency_unlock_failed", "error", uerr)
			}
		}
		return nil, fmt.Errorf("%w: create order: %v", ErrUpstream, err)
	}

	if keyed {
		if err := s.Idem.Remember(ctx, scope, in.IdempotencyKey, order.ID.String()); err != nil {
			l.Warn("idempotency_remember_failed", "order_id", order.ID, "error", err)
		}
	}

	metrics.OrdersCreated.Inc()
	s.publish(ctx, newEvent(EventOrderCreated, order, ""))
	l.Info("order_created", "order_id", order.ID, "grand_total", order.Pricing.GrandTotal)
	return order, nil
}

// catalogItems checks every line against the catalog and snapshots the
// product name. A price that differs from the catalog means the cart is out
// of date.
func (s *OrderService) catalogItems(ctx context.Context, in []models.LineItem) ([]models.LineItem, error) {
	if s.Products == nil {
		return nil, fmt.Errorf("%w: product catalog is not configured", ErrUpstream)
	}

	ids := make([]uuid.UUID, 0, len(in))
	for _, it := range in {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Products.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load products: %v", ErrUpstream, err)
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]models.LineItem, 0, len(in))
	for i, it := range in {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, it.ProductID)
		}
		if it.UnitPrice != p.Price {
			return nil, fmt.Errorf("%w: items[%d].unit_price %d does not match the current price %d", ErrValidation, i, it.UnitPrice, p.Price)
		}
		it.Name = p.Name
		if it.Image == "" && len(p.Images) > 0 {
			it.Image = p.Images[0]
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *OrderService) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: load order: %v", ErrUpstream, err)
	}
	return o, nil
}

func (s *OrderService) getOwned(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(o.OwnerID) {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	return o, nil
}

func (s *OrderService) GetOrder(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Order, error) {
	return s.getOwned(ctx, actor, id)
}

func (s *OrderService) ListMine(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	orders, err := s.Repo.ListByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", ErrUpstream, err)
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context, actor models.Actor, offset, limit int) ([]models.Order, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	orders, total, err := s.Repo.ListAll(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list orders: %v", ErrUpstream, err)
	}
	return orders, total, nil
}

// TransitionStatus applies the status state machine. A lost optimistic lock
// re-reads the order and evaluates the guard again.
func (s *OrderService) TransitionStatus(ctx context.Context, actor models.Actor, id uuid.UUID, target string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.transition", "order_id", id, "target", target)

	to, ok := models.ParseOrderStatus(target)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, target)
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		o, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := checkTransition(o, to, actor); err != nil {
			return nil, err
		}

		from := o.Status
		prev := o.Version
		o.Status = to
		if to == models.OrderStatusDelivered {
			at := s.now()
			o.DeliveredAt = &at
		}

		err = s.Repo.UpdateStatus(ctx, o, prev)
		if errors.Is(err, repo.ErrStale) {
			l.Debug("transition_retry", "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: update status: %v", ErrUpstream, err)
		}

		metrics.OrderTransitions.WithLabelValues(string(from), string(to)).Inc()
		s.publish(ctx, newEvent(EventOrderStatusChanged, o, from))
		l.Info("order_status_changed", "from", from, "to", to)
		return o, nil
	}
	return nil, fmt.Errorf("%w: order changed concurrently, retry", ErrConflict)
}

// Cancel is the owner's shortcut to TransitionStatus(..., Cancelled).
func (s *OrderService) Cancel(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Order, error) {
	return s.TransitionStatus(ctx, actor, id, string(models.OrderStatusCancelled))
}

// Settle records a verified payment on a pending order exactly once. The
// payment must be against the gateway order bound by BindIntent. A repeat
// with the same external payment id returns the order unchanged.
func (s *OrderService) Settle(ctx context.Context, actor models.Actor, id uuid.UUID, result models.PaymentResult) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.settle", "order_id", id)

	if result.ExternalPaymentID == "" {
		return nil, fmt.Errorf("%w: external payment id required", ErrValidation)
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		o, err := s.getOwned(ctx, actor, id)
		if err != nil {
			return nil, err
		}

		if o.IsPaid() {
			if o.PaymentResult != nil && o.PaymentResult.ExternalPaymentID == result.ExternalPaymentID {
				l.Info("settlement_replayed")
				return o, nil
			}
			return nil, fmt.Errorf("%w: order is already paid", ErrConflict)
		}
		if err := checkPayable(o); err != nil {
			return nil, err
		}
		if o.GatewayOrderID == nil || *o.GatewayOrderID != result.GatewayOrderID {
			return nil, fmt.Errorf("%w: payment was not issued for this order", ErrValidation)
		}

		pr := result
		if pr.VerifiedAt.IsZero() {
			pr.VerifiedAt = s.now()
		}
		paidAt := pr.VerifiedAt
		prev := o.Version
		o.PaymentResult = &pr
		o.PaidAt = &paidAt
		o.ExternalPaymentID = &pr.ExternalPaymentID

		err = s.Repo.AttachPayment(ctx, o, prev)
		if errors.Is(err, repo.ErrStale) {
			continue
		}
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: payment already settled another order", ErrConflict)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: attach payment: %v", ErrUpstream, err)
		}

		s.publish(ctx, newEvent(EventOrderPaid, o, ""))
		l.Info("order_paid", "external_payment_id", pr.ExternalPaymentID)
		return o, nil
	}
	return nil, fmt.Errorf("%w: order changed concurrently, retry", ErrConflict)
}

func checkPayable(o *models.Order) error {
	if o.IsPaid() {
		return fmt.Errorf("%w: order is already paid", ErrConflict)
	}
	if o.PaymentMethod != models.PaymentMethodRazorpay {
		return fmt.Errorf("%w: %s orders are not paid online", ErrValidation, o.PaymentMethod)
	}
	if o.Status != models.OrderStatusPending {
		return fmt.Errorf("%w: cannot pay a %s order", ErrInvalidTransition, o.Status)
	}
	return nil
}

// Payable returns the actor's order if it can still take an online payment.
func (s *OrderService) Payable(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Order, error) {
	o, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := checkPayable(o); err != nil {
		return nil, err
	}
	return o, nil
}

// BindIntent ties a gateway order to a payable order. A newer intent
// replaces an unpaid older one.
func (s *OrderService) BindIntent(ctx context.Context, actor models.Actor, id uuid.UUID, gatewayOrderID string) (*models.Order, error) {
	if gatewayOrderID == "" {
		return nil, fmt.Errorf("%w: gateway order id required", ErrValidation)
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		o, err := s.Payable(ctx, actor, id)
		if err != nil {
			return nil, err
		}
		prev := o.Version
		gid := gatewayOrderID
		o.GatewayOrderID = &gid

		err = s.Repo.BindGatewayOrder(ctx, o, prev)
		if errors.Is(err, repo.ErrStale) {
			continue
		}
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: gateway order is bound to another order", ErrConflict)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: bind gateway order: %v", ErrUpstream, err)
		}
		return o, nil
	}
	return nil, fmt.Errorf("%w: order changed concurrently, retry", ErrConflict)
}
