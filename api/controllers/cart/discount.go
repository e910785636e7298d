package cart

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/controllers/sessionctx"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/discounts"
	"github.com/angelmondragon/storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type applyDiscountResponse struct {
	Result discounts.Result  `json:"result"`
	Totals storefront.Totals `json:"totals"`
}

// CartApplyDiscount validates a code against the current subtotal and applies it.
// Rejections come back as DISCOUNT_REJECTED with the shopper-facing reason.
func CartApplyDiscount(sessions sessionctx.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionctx.Resolve(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := s.ApplyDiscount(r.Context(), validators.SanitizeString(payload.Code, 64))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !res.IsValid {
			responses.WriteError(r.Context(), logg, w, rejection(res))
			return
		}

		totals, err := s.Totals(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, applyDiscountResponse{Result: res, Totals: totals})
	}
}

// CartRemoveDiscount clears the applied code and returns the repriced totals.
func CartRemoveDiscount(sessions sessionctx.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionctx.Resolve(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := s.RemoveDiscount(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		totals, err := s.Totals(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, totals)
	}
}

func rejection(res discounts.Result) *pkgerrors.Error {
	details := map[string]any{
		"outcome": string(res.Outcome),
		"reason":  res.Error,
	}
	if res.Retryable {
		return pkgerrors.New(pkgerrors.CodeDependency, res.Error).WithDetails(details)
	}
	return pkgerrors.New(pkgerrors.CodeRejected, res.Error).WithDetails(details)
}
