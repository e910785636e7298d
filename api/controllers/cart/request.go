package cart

import (
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/money"
)

type addItemRequest struct {
	ID    string      `json:"id" validate:"required,max=128"`
	Name  string      `json:"name" validate:"required,max=256"`
	Price money.Money `json:"price" validate:"gte=0"`
	Image string      `json:"image" validate:"omitempty,max=2048"`
	// Quantity below 1 (or omitted) adds a single unit.
	Quantity int `json:"quantity" validate:"max=10000"`
}

func (r addItemRequest) toItem() cartsvc.Item {
	return cartsvc.Item{
		ID:    r.ID,
		Name:  r.Name,
		Price: r.Price,
		Image: r.Image,
	}
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=10000"`
}

type applyDiscountRequest struct {
	Code string `json:"code" validate:"max=64"`
}
