// Package discounts resolves discount codes and decides whether and how much they take off a subtotal.
package discounts

import (
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

// Type is the backend's discountType value.
type Type string

const (
	TypePercentage   Type = "PERCENTAGE"
	TypeFixedAmount  Type = "FIXED_AMOUNT"
	TypeFreeShipping Type = "FREE_SHIPPING"
)

// ParseType normalizes a wire value; anything unrecognised is treated as a percentage.
func ParseType(raw string) Type {
	switch Type(strings.ToUpper(strings.TrimSpace(raw))) {
	case TypeFixedAmount:
		return TypeFixedAmount
	case TypeFreeShipping:
		return TypeFreeShipping
	default:
		return TypePercentage
	}
}

// Benefit is what a discount grants. Exactly one of Percentage, FixedAmount or FreeShipping.
type Benefit interface {
	Type() Type
	// Amount is the reduction applied to subtotal before clamping.
	Amount(subtotal money.Money) money.Money
	// WaivesShipping reports whether the shipping charge is dropped.
	WaivesShipping() bool
}

// Percentage takes Percent percent off the subtotal.
type Percentage struct {
	Percent decimal.Decimal
}

func (Percentage) Type() Type { return TypePercentage }

func (p Percentage) Amount(subtotal money.Money) money.Money {
	return subtotal.Percent(p.Percent)
}

func (Percentage) WaivesShipping() bool { return false }

// FixedAmount takes a flat amount off the subtotal.
type FixedAmount struct {
	Off money.Money
}

func (FixedAmount) Type() Type { return TypeFixedAmount }

func (f FixedAmount) Amount(money.Money) money.Money {
	return f.Off
}

func (FixedAmount) WaivesShipping() bool { return false }

// FreeShipping leaves the subtotal alone and waives shipping.
type FreeShipping struct{}

func (FreeShipping) Type() Type { return TypeFreeShipping }

func (FreeShipping) Amount(money.Money) money.Money { return 0 }

func (FreeShipping) WaivesShipping() bool { return true }

// Discount is a resolved discount definition.
type Discount struct {
	ID      string
	Name    string
	Code    string
	Benefit Benefit

	MinimumAmount *money.Money
	MaximumAmount *money.Money
	StartDate     *time.Time
	EndDate       *time.Time
	UsageLimit    *int
	UsedCount     int
	IsActive      bool

	// Flags as reported by the backend, when present.
	reportedValid     *bool
	reportedCanBeUsed *bool
}

// IsValid reports whether the discount is active and now is inside its date window.
// A backend that says otherwise wins when it is stricter.
func (d Discount) IsValid(now time.Time) bool {
	if d.reportedValid != nil && !*d.reportedValid {
		return false
	}
	if !d.IsActive {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}

// CanBeUsed is IsValid plus an unexhausted usage limit.
func (d Discount) CanBeUsed(now time.Time) bool {
	if d.reportedCanBeUsed != nil && !*d.reportedCanBeUsed {
		return false
	}
	if !d.IsValid(now) {
		return false
	}
	if d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit {
		return false
	}
	return true
}
