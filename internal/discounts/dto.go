package discounts

import (
	"time"

	"github.com/angelmondragon/storefront/pkg/money"
	"github.com/shopspring/decimal"
)

// DiscountDTO is the backend's wire shape. Percentage carries the percent for
// PERCENTAGE discounts and the flat amount in major units for FIXED_AMOUNT ones.
type DiscountDTO struct {
	DiscountID    string           `json:"discountId"`
	Name          string           `json:"name"`
	DiscountCode  string           `json:"discountCode,omitempty"`
	DiscountType  string           `json:"discountType"`
	Percentage    decimal.Decimal  `json:"percentage"`
	MinimumAmount *decimal.Decimal `json:"minimumAmount,omitempty"`
	MaximumAmount *decimal.Decimal `json:"maximumAmount,omitempty"`
	StartDate     *time.Time       `json:"startDate,omitempty"`
	EndDate       *time.Time       `json:"endDate,omitempty"`
	UsageLimit    *int             `json:"usageLimit,omitempty"`
	UsedCount     int              `json:"usedCount"`
	IsActive      bool             `json:"isActive"`
	IsValid       *bool            `json:"isValid,omitempty"`
	CanBeUsed     *bool            `json:"canBeUsed,omitempty"`
}

// ToDiscount decodes the overloaded percentage field into a Benefit.
func (d DiscountDTO) ToDiscount() Discount {
	out := Discount{
		ID:                d.DiscountID,
		Name:              d.Name,
		Code:              d.DiscountCode,
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		UsageLimit:        d.UsageLimit,
		UsedCount:         d.UsedCount,
		IsActive:          d.IsActive,
		reportedValid:     d.IsValid,
		reportedCanBeUsed: d.CanBeUsed,
	}

	switch ParseType(d.DiscountType) {
	case TypeFixedAmount:
		out.Benefit = FixedAmount{Off: money.FromDecimal(d.Percentage)}
	case TypeFreeShipping:
		out.Benefit = FreeShipping{}
	default:
		out.Benefit = Percentage{Percent: d.Percentage}
	}

	if d.MinimumAmount != nil {
		m := money.FromDecimal(*d.MinimumAmount)
		out.MinimumAmount = &m
	}
	if d.MaximumAmount != nil {
		m := money.FromDecimal(*d.MaximumAmount)
		out.MaximumAmount = &m
	}
	return out
}

// Summary is the shopper-facing view of an applied discount.
type Summary struct {
	ID    string `json:"discountId"`
	Name  string `json:"name"`
	Code  string `json:"discountCode"`
	Type  Type   `json:"discountType"`
	Value string `json:"value,omitempty"`
}

// Summarize renders d for API responses.
func Summarize(d Discount) Summary {
	s := Summary{ID: d.ID, Name: d.Name, Code: d.Code}
	if d.Benefit == nil {
		return s
	}
	s.Type = d.Benefit.Type()
	switch b := d.Benefit.(type) {
	case Percentage:
		s.Value = b.Percent.String() + "%"
	case FixedAmount:
		s.Value = b.Off.Display()
	}
	return s
}
