package discounts

import (
	"context"
	"errors"
)

// ErrNotFound means the backend has no discount for the code.
var ErrNotFound = errors.New("discount code not found")

// Lookup resolves a discount by its code.
type Lookup interface {
	FindByCode(ctx context.Context, code string) (Discount, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, code string) (Discount, error)

func (f LookupFunc) FindByCode(ctx context.Context, code string) (Discount, error) {
	return f(ctx, code)
}
