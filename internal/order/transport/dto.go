package transport

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
)

type LineItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Name      string    `json:"name"       validate:"max=200"`
	Quantity  int       `json:"quantity"   validate:"required,min=1,max=10000"`
	UnitPrice int64     `json:"unit_price" validate:"gte=0,max=1000000000000"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	Image     string    `json:"image"`
}

type AddressRequest struct {
	Address    string `json:"address"     validate:"required"`
	City       string `json:"city"        validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country"     validate:"required"`
}

type PricingRequest struct {
	ItemsTotal    int64 `json:"items_total"    validate:"gte=0"`
	TaxTotal      int64 `json:"tax_total"      validate:"gte=0"`
	ShippingTotal int64 `json:"shipping_total" validate:"gte=0"`
	GrandTotal    int64 `json:"grand_total"    validate:"gte=0"`
}

type CreateOrderRequest struct {
	Items           []LineItemRequest `json:"items"            validate:"required,min=1,max=100,dive"`
	ShippingAddress AddressRequest    `json:"shipping_address" validate:"required"`
	PaymentMethod   string            `json:"payment_method"   validate:"required,oneof=COD Razorpay"`
	Pricing         *PricingRequest   `json:"pricing"          validate:"omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Shipped Delivered Cancelled"`
}

type ListOrdersQuery struct {
	Page int `query:"page"`
	Size int `query:"size"`
}

type StatsQuery struct {
	Days int `query:"days"`
}

func (r CreateOrderRequest) LineItems() []models.LineItem {
	out := make([]models.LineItem, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, models.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Size:      it.Size,
			Color:     it.Color,
			Image:     it.Image,
		})
	}
	return out
}

func (r CreateOrderRequest) Address() models.ShippingAddress {
	a := r.ShippingAddress
	return models.ShippingAddress{Address: a.Address, City: a.City, PostalCode: a.PostalCode, Country: a.Country}
}

func (r CreateOrderRequest) ClientPricing() *models.Pricing {
	if r.Pricing == nil {
		return nil
	}
	return &models.Pricing{
		ItemsTotal:    r.Pricing.ItemsTotal,
		TaxTotal:      r.Pricing.TaxTotal,
		ShippingTotal: r.Pricing.ShippingTotal,
		GrandTotal:    r.Pricing.GrandTotal,
	}
}
