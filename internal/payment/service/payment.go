package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/internal/payment/gateway"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
	"github.com/Skotchmaster/ethnic_shop/pkg/metrics"
)

var (
	ErrValidation         = errors.New("validation")
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be at least 1", ErrValidation)
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrUpstream           = errors.New("upstream failure")
)

const maxReceiptLen = 40

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// OrderLedger is the order side of a payment: which orders can be paid, which
// gateway order each one expects, and settlement.
type OrderLedger interface {
	Payable(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Order, error)
	BindIntent(ctx context.Context, actor models.Actor, id uuid.UUID, gatewayOrderID string) (*models.Order, error)
	Settle(ctx context.Context, actor models.Actor, id uuid.UUID, result models.PaymentResult) (*models.Order, error)
}

type PaymentService struct {
	Gateway         gateway.Gateway
	KeyID           string
	KeySecret       []byte
	Orders          OrderLedger
	DefaultCurrency string
	Now             func() time.Time
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *PaymentService) configured() bool {
	return s.Gateway != nil && s.KeyID != "" && len(s.KeySecret) > 0
}

type IntentInput struct {
	OrderID  uuid.UUID
	Amount   int64
	Currency string
	Receipt  string
}

type Intent struct {
	GatewayOrderID string    `json:"id"`
	OrderID        uuid.UUID `json:"order_id"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Receipt        string    `json:"receipt"`
	Status         string    `json:"status,omitempty"`
	KeyID          string    `json:"key_id"`
}

// CreateIntent registers a gateway order for amount (smallest currency unit)
// and binds it to the order. The amount must equal the order's grand total.
func (s *PaymentService) CreateIntent(ctx context.Context, actor models.Actor, in IntentInput) (*Intent, error) {
	l := logging.FromContext(ctx).With("svc", "payment.create_intent", "user_id", actor.UserID)

	if in.Amount < 1 {
		return nil, ErrInvalidAmount
	}
	if in.OrderID == uuid.Nil {
		return nil, fmt.Errorf("%w: order_id required", ErrValidation)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.DefaultCurrency
	}
	if !currencyRe.MatchString(currency) {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code", ErrValidation)
	}
	receipt := strings.TrimSpace(in.Receipt)
	if receipt == "" {
		receipt = fmt.Sprintf("receipt_%d", s.now().UnixMilli())
	}
	if len(receipt) > maxReceiptLen {
		return nil, fmt.Errorf("%w: receipt must be at most %d characters", ErrValidation, maxReceiptLen)
	}

	if !s.configured() {
		return nil, ErrGatewayUnavailable
	}

	order, err := s.Orders.Payable(ctx, actor, in.OrderID)
	if err != nil {
		return nil, err
	}
	if in.Amount != order.Pricing.GrandTotal {
		return nil, fmt.Errorf("%w: amount %d does not match the order total %d", ErrValidation, in.Amount, order.Pricing.GrandTotal)
	}

	o, err := s.Gateway.CreateOrder(ctx, order.Pricing.GrandTotal, currency, receipt)
	if err != nil {
		l.Error("gateway_create_order_failed", "amount", in.Amount, "currency", currency, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if _, err := s.Orders.BindIntent(ctx, actor, order.ID, o.ID); err != nil {
		l.Warn("gateway_order_bind_failed", "order_id", order.ID, "gateway_order_id", o.ID, "error", err)
		return nil, err
	}

	l.Info("gateway_order_created", "order_id", order.ID, "gateway_order_id", o.ID, "amount", o.Amount)
	return &Intent{
		GatewayOrderID: o.ID,
		OrderID:        order.ID,
		Amount:         o.Amount,
		Currency:       o.Currency,
		Receipt:        o.Receipt,
		Status:         o.Status,
		KeyID:          s.KeyID,
	}, nil
}

// Sign returns the hex HMAC-SHA256 of "gatewayOrderID|gatewayPaymentID".
func Sign(secret []byte, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func signatureValid(secret []byte, gatewayOrderID, gatewayPaymentID, signature string) bool {
	expected := Sign(secret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

type VerifyInput struct {
	OrderID          uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// Verify authenticates a gateway callback and settles the order it was issued
// for. Order-level failures come back as the order service's sentinel errors.
func (s *PaymentService) Verify(ctx context.Context, actor models.Actor, in VerifyInput) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "payment.verify", "order_id", in.OrderID)

	if in.OrderID == uuid.Nil || in.GatewayOrderID == "" || in.GatewayPaymentID == "" || in.Signature == "" {
		metrics.PaymentVerifications.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: order_id, gateway_order_id, gateway_payment_id and signature are required", ErrValidation)
	}
	if len(s.KeySecret) == 0 {
		return nil, ErrGatewayUnavailable
	}

	if !signatureValid(s.KeySecret, in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		metrics.PaymentVerifications.WithLabelValues("signature_mismatch").Inc()
		l.Warn("payment_signature_mismatch", "gateway_order_id", in.GatewayOrderID)
		return nil, ErrSignatureMismatch
	}

	o, err := s.Orders.Settle(ctx, actor, in.OrderID, models.PaymentResult{
		ExternalPaymentID: in.GatewayPaymentID,
		GatewayOrderID:    in.GatewayOrderID,
		VerifiedAt:        s.now(),
		PayerEmail:        actor.Email,
	})
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("rejected").Inc()
		return nil, err
	}

	metrics.PaymentVerifications.WithLabelValues("ok").Inc()
	l.Info("payment_verified", "gateway_payment_id", in.GatewayPaymentID)
	return o, nil
}

type Method struct {
	ID          models.PaymentMethod `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Available   bool                 `json:"available"`
}

func (s *PaymentService) Methods() []Method {
	return []Method{
		{
			ID:          models.PaymentMethodRazorpay,
			Name:        "Razorpay",
			Description: "Cards, UPI, net banking and wallets",
			Available:   s.configured(),
		},
		{
			ID:          models.PaymentMethodCOD,
			Name:        "Cash on Delivery",
			Description: "Pay when the order arrives",
			Available:   true,
		},
	}
}
