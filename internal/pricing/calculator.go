// Package pricing derives cart totals from a subtotal and an applied discount.
package pricing

import (
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/money"
)

// Defaults used when no configuration is supplied.
const (
	DefaultFreeShippingThreshold money.Money = 5000
	DefaultFlatShipping          money.Money = 599
	DefaultTaxRateBasisPoints    int64       = 800
)

// Calculator holds the shipping tier and tax rate.
type Calculator struct {
	FreeShippingThreshold money.Money
	FlatShipping          money.Money
	// TaxRateBasisPoints is the tax rate in 1/100 of a percent (800 = 8%).
	TaxRateBasisPoints int64
}

func NewCalculator() Calculator {
	return Calculator{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FlatShipping:          DefaultFlatShipping,
		TaxRateBasisPoints:    DefaultTaxRateBasisPoints,
	}
}

// FromConfig builds a calculator from the pricing config section.
func FromConfig(cfg config.PricingConfig) Calculator {
	return Calculator{
		FreeShippingThreshold: money.FromCents(cfg.FreeShippingThreshold),
		FlatShipping:          money.FromCents(cfg.FlatShipping),
		TaxRateBasisPoints:    cfg.TaxRateBasisPoints,
	}
}

// Input is everything totals depend on.
type Input struct {
	Subtotal     money.Money
	Discount     money.Money
	FreeShipping bool
}

// Totals is the derived price breakdown.
type Totals struct {
	Subtotal money.Money `json:"subtotal"`
	Shipping money.Money `json:"shipping"`
	Tax      money.Money `json:"tax"`
	Discount money.Money `json:"discount"`
	Total    money.Money `json:"total"`
}

// Shipping returns the shipping charge for subtotal: free at or above the threshold.
func (c Calculator) Shipping(subtotal money.Money) money.Money {
	if subtotal >= c.FreeShippingThreshold {
		return 0
	}
	return c.FlatShipping
}

// Tax is charged on the subtotal alone, before discount and shipping.
func (c Calculator) Tax(subtotal money.Money) money.Money {
	return subtotal.BasisPoints(c.TaxRateBasisPoints)
}

// Calculate returns subtotal + shipping + tax - discount.
func (c Calculator) Calculate(in Input) Totals {
	shipping := c.Shipping(in.Subtotal)
	if in.FreeShipping {
		shipping = 0
	}
	tax := c.Tax(in.Subtotal)
	return Totals{
		Subtotal: in.Subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: in.Discount,
		Total:    in.Subtotal + shipping + tax - in.Discount,
	}
}
