// Package products holds the catalog snapshot shape the storefront keeps in carts and wishlists.
package products

import (
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/money"
)

// Product is a point-in-time copy of a catalog entry. It is never refreshed once stored.
type Product struct {
	ID          string      `json:"id" validate:"required"`
	Name        string      `json:"name" validate:"required"`
	Description string      `json:"description,omitempty"`
	Price       money.Money `json:"price" validate:"gte=0"`
	Image       string      `json:"image,omitempty"`
	Category    string      `json:"category,omitempty"`
	Stock       int         `json:"stock" validate:"gte=0"`
}

// Validate checks the fields the cart and wishlist rely on.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if p.Price < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price must not be negative")
	}
	return nil
}
