package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type PaymentMethod string

const (
	PaymentMethodCOD      PaymentMethod = "COD"
	PaymentMethodRazorpay PaymentMethod = "Razorpay"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodRazorpay
}

type LineItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	Image     string    `json:"image,omitempty"`
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Pricing amounts are in the smallest currency unit.
type Pricing struct {
	ItemsTotal    int64 `gorm:"not null" json:"items_total"`
	TaxTotal      int64 `gorm:"not null" json:"tax_total"`
	ShippingTotal int64 `gorm:"not null" json:"shipping_total"`
	GrandTotal    int64 `gorm:"not null" json:"grand_total"`
}

type PaymentResult struct {
	ExternalPaymentID string    `json:"external_payment_id"`
	GatewayOrderID    string    `json:"gateway_order_id"`
	VerifiedAt        time.Time `json:"verified_at"`
	PayerEmail        string    `json:"payer_email,omitempty"`
}

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"            json:"id"`
	OwnerID         uuid.UUID       `gorm:"type:uuid;index;not null"        json:"owner_id"`
	LineItems       []LineItem      `gorm:"serializer:json;type:text;not null" json:"line_items"`
	ShippingAddress ShippingAddress `gorm:"serializer:json;type:text;not null" json:"shipping_address"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(16);not null"       json:"payment_method"`
	Pricing         Pricing         `gorm:"embedded"                        json:"pricing"`
	Status          OrderStatus     `gorm:"type:varchar(16);index;not null" json:"status"`
	PaymentResult   *PaymentResult  `gorm:"serializer:json;type:text"       json:"payment_result,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	Version         int64           `gorm:"not null;default:1"              json:"-"`
	CreatedAt       time.Time       `gorm:"index"                           json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// GatewayOrderID is the gateway intent issued for this order; only a
	// payment against it can settle the order.
	GatewayOrderID    *string `gorm:"type:varchar(64);uniqueIndex" json:"gateway_order_id,omitempty"`
	ExternalPaymentID *string `gorm:"type:varchar(64);uniqueIndex" json:"-"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	if o.Version == 0 {
		o.Version = 1
	}
	return nil
}

func (o *Order) IsPaid() bool { return o.PaidAt != nil }
