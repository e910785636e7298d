package cart

import (
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/storefront"
)

type cartResponse struct {
	cartsvc.Snapshot
	AppliedDiscountCode string `json:"appliedDiscountCode,omitempty"`
}

func newCartResponse(s *storefront.Session) cartResponse {
	snap := s.Cart.Snapshot()
	if snap.Items == nil {
		snap.Items = []cartsvc.Item{}
	}
	return cartResponse{
		Snapshot:            snap,
		AppliedDiscountCode: s.AppliedCode(),
	}
}
