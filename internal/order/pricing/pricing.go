package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
)

// Rule computes order totals. Shipping is free once the items total reaches
// FreeShippingThreshold; tax is rounded half away from zero to a whole unit.
type Rule struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold int64
	ShippingFee           int64
}

func Default() Rule {
	return Rule{
		TaxRate:               decimal.RequireFromString("0.05"),
		FreeShippingThreshold: 1000,
		ShippingFee:           50,
	}
}

func NewRule(taxRate string, threshold, fee int64) (Rule, error) {
	rate, err := decimal.NewFromString(taxRate)
	if err != nil {
		return Rule{}, fmt.Errorf("parse tax rate %q: %w", taxRate, err)
	}
	if rate.IsNegative() || threshold < 0 || fee < 0 {
		return Rule{}, fmt.Errorf("pricing rule values must be non-negative")
	}
	return Rule{TaxRate: rate, FreeShippingThreshold: threshold, ShippingFee: fee}, nil
}

// Limits keep every total representable as int64.
const (
	MaxLineItems = 100
	MaxQuantity  = 10_000
	MaxUnitPrice = 1_000_000_000_000
)

var ErrOutOfRange = errors.New("amount out of range")

var maxAmount = decimal.NewFromInt(math.MaxInt64)

func toAmount(d decimal.Decimal) (int64, error) {
	if d.IsNegative() || d.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	return d.IntPart(), nil
}

func sumItems(items []models.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromInt(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// ItemsTotal sums unit price times quantity over items.
func ItemsTotal(items []models.LineItem) (int64, error) {
	return toAmount(sumItems(items))
}

func (r Rule) Quote(items []models.LineItem) (models.Pricing, error) {
	for _, it := range items {
		if it.Quantity < 0 || it.UnitPrice < 0 {
			return models.Pricing{}, fmt.Errorf("%w: negative line item", ErrOutOfRange)
		}
	}

	itemsDec := sumItems(items)
	itemsTotal, err := toAmount(itemsDec)
	if err != nil {
		return models.Pricing{}, err
	}

	taxDec := itemsDec.Mul(r.TaxRate).Round(0)
	tax, err := toAmount(taxDec)
	if err != nil {
		return models.Pricing{}, err
	}

	shipping := r.ShippingFee
	if itemsTotal >= r.FreeShippingThreshold {
		shipping = 0
	}

	grand, err := toAmount(itemsDec.Add(taxDec).Add(decimal.NewFromInt(shipping)))
	if err != nil {
		return models.Pricing{}, err
	}

	return models.Pricing{
		ItemsTotal:    itemsTotal,
		TaxTotal:      tax,
		ShippingTotal: shipping,
		GrandTotal:    grand,
	}, nil
}

// Consistent reports whether p is internally coherent.
func Consistent(p models.Pricing) bool {
	if p.ItemsTotal < 0 || p.TaxTotal < 0 || p.ShippingTotal < 0 || p.GrandTotal < 0 {
		return false
	}
	sum := decimal.NewFromInt(p.ItemsTotal).Add(decimal.NewFromInt(p.TaxTotal)).Add(decimal.NewFromInt(p.ShippingTotal))
	return sum.Equal(decimal.NewFromInt(p.GrandTotal))
}
