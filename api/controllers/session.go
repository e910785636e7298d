package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/controllers/sessionctx"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type sessionResponse struct {
	SessionID           string `json:"sessionId"`
	CartQuantity        int    `json:"cartQuantity"`
	WishlistCount       int    `json:"wishlistCount"`
	AppliedDiscountCode string `json:"appliedDiscountCode,omitempty"`
}

// SessionInfo summarizes the caller's session, creating it on first use.
func SessionInfo(sessions sessionctx.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionctx.Resolve(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionResponse{
			SessionID:           s.ID,
			CartQuantity:        s.Cart.TotalQuantity(),
			WishlistCount:       s.Wishlist.Len(),
			AppliedDiscountCode: s.AppliedCode(),
		})
	}
}
