package cart

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/internal/products"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/money"
)

// Item is one cart line. Price is the unit price captured when the line was first added.
type Item struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    money.Money `json:"price"`
	Image    string      `json:"image"`
	Quantity int         `json:"quantity"`
}

// MaxQuantity caps the units of a single cart line.
const MaxQuantity = 10000

// LineTotal is price * quantity; it fails only for lines outside the store's bounds.
func (i Item) LineTotal() (money.Money, error) {
	return i.Price.Mul(i.Quantity)
}

func (i Item) validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if i.Price < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "item price must not be negative")
	}
	if i.Price > money.MaxAmount {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item price must not exceed %s", money.MaxAmount.Display()))
	}
	return nil
}

func quantityError(id string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity of %s must not exceed %d", id, MaxQuantity))
}

// total sums line totals with overflow checks.
func total(items []Item) (money.Money, error) {
	var sum money.Money
	for _, item := range items {
		line, err := item.LineTotal()
		if err != nil {
			return 0, err
		}
		if sum, err = sum.Add(line); err != nil {
			return 0, err
		}
	}
	return sum, nil
}

// ItemFromProduct snapshots the catalog fields a cart line keeps.
func ItemFromProduct(p products.Product) Item {
	return Item{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Image: p.Image,
	}
}
