package discounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// Sample codes served when demo mode is on and the backend cannot be reached.
var demoCodes = []DiscountDTO{
	{DiscountID: "demo-1", Name: "Welcome 10%", DiscountCode: "WELCOME10", DiscountType: string(TypePercentage), Percentage: decimal.NewFromInt(10), IsActive: true},
	{DiscountID: "demo-2", Name: "Big Basket 20%", DiscountCode: "SAVE20", DiscountType: string(TypePercentage), Percentage: decimal.NewFromInt(20), MinimumAmount: decPtr(100), IsActive: true},
	{DiscountID: "demo-3", Name: "$15 Off", DiscountCode: "FLAT15", DiscountType: string(TypeFixedAmount), Percentage: decimal.NewFromInt(15), MinimumAmount: decPtr(50), IsActive: true},
	{DiscountID: "demo-4", Name: "Free Shipping", DiscountCode: "FREESHIP", DiscountType: string(TypeFreeShipping), IsActive: true},
	{DiscountID: "demo-5", Name: "Small Orders 5%", DiscountCode: "SMALL5", DiscountType: string(TypePercentage), Percentage: decimal.NewFromInt(5), MaximumAmount: decPtr(40), IsActive: true},
	{DiscountID: "demo-6", Name: "Spring Sale", DiscountCode: "SPRING2023", DiscountType: string(TypePercentage), Percentage: decimal.NewFromInt(25), EndDate: timePtr(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)), IsActive: true},
	{DiscountID: "demo-7", Name: "Launch Promo", DiscountCode: "LAUNCH", DiscountType: string(TypeFixedAmount), Percentage: decimal.NewFromInt(5), UsageLimit: intPtr(100), UsedCount: 100, IsActive: true},
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(v int) *int { return &v }

// DemoLookup serves the built-in sample codes. Codes match case-insensitively.
type DemoLookup struct{}

func (DemoLookup) FindByCode(_ context.Context, code string) (Discount, error) {
	code = strings.TrimSpace(code)
	for _, dto := range demoCodes {
		if strings.EqualFold(dto.DiscountCode, code) {
			return dto.ToDiscount(), nil
		}
	}
	return Discount{}, ErrNotFound
}

// WithDemoFallback answers from DemoLookup whenever primary fails for any reason
// other than an unknown code. Only wire it when demo mode is enabled.
func WithDemoFallback(primary Lookup, logg *logger.Logger) Lookup {
	demo := DemoLookup{}
	return LookupFunc(func(ctx context.Context, code string) (Discount, error) {
		if primary == nil {
			return demo.FindByCode(ctx, code)
		}
		d, err := primary.FindByCode(ctx, code)
		if err == nil || errors.Is(err, ErrNotFound) {
			return d, err
		}
		if logg != nil {
			logg.Warn(logg.WithField(ctx, "discount_code", code), "discount backend unavailable, serving demo dataset")
		}
		return demo.FindByCode(ctx, code)
	})
}
