package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/controllers/sessionctx"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/wishlist"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type addWishlistItemPayload struct {
	Product products.Product `json:"product"`
}

type wishlistResponse struct {
	Items []wishlist.Item `json:"items"`
	Count int             `json:"count"`
}

type wishlistAddResponse struct {
	wishlistResponse
	Added bool `json:"added"`
}

type wishlistMembershipResponse struct {
	ID         string `json:"id"`
	InWishlist bool   `json:"inWishlist"`
}

type wishlistMoveResponse struct {
	Wishlist wishlistResponse `json:"wishlist"`
	Cart     cart.Snapshot    `json:"cart"`
}

func newWishlistResponse(store *wishlist.Store) wishlistResponse {
	items := store.Items()
	if items == nil {
		items = []wishlist.Item{}
	}
	return wishlistResponse{Items: items, Count: len(items)}
}

// WishlistFetch returns the saved product snapshots for the session.
func WishlistFetch(sessions sessionctx.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionctx.Resolve(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWishlistResponse(s.Wishlist))
	}
}

// WishlistAddItem saves a product snapshot. Saving a product twice is a no-op.
func WishlistAddItem(sessions sessionctx.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionctx.Resolve(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addWishlistItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		added, err := s.Wishlist.AddItem(r.Context(), payload.Product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, wishlistAddResponse{
			wishlistResponse: newWishlistResponse(s.Wishlist),
			Added:            added,
		})
	}
}

// WishlistContains reports whether a product id is saved.
func WishlistContains(sessions sessionctx.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionctx.ItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		s, err := sessionctx.Resolve(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistMembershipResponse{ID: id, InWishlist: s.Wishlist.IsInWishlist(id)})
	}
}

// WishlistRemoveItem drops a product; unknown ids are ignored.
func WishlistRemoveItem(sessions sessionctx.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionctx.ItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		s, err := sessionctx.Resolve(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := s.Wishlist.RemoveItem(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWishlistResponse(s.Wishlist))
	}
}

func WishlistClear(sessions sessionctx.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionctx.Resolve(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := s.Wishlist.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWishlistResponse(s.Wishlist))
	}
}

// WishlistMoveToCart moves a saved product into the cart as a single unit.
func WishlistMoveToCart(sessions sessionctx.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := sessionctx.ItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		s, err := sessionctx.Resolve(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		moved, err := s.MoveToCart(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !moved {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the wishlist"))
			return
		}
		responses.WriteSuccess(w, wishlistMoveResponse{
			Wishlist: newWishlistResponse(s.Wishlist),
			Cart:     s.Cart.Snapshot(),
		})
	}
}
