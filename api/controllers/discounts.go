package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/discounts"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/money"
)

// DiscountValidator is satisfied by *discounts.Validator.
type DiscountValidator interface {
	ValidateDiscountCode(ctx context.Context, code string, subtotal money.Money) discounts.Result
}

type validateDiscountPayload struct {
	Code     string      `json:"code" validate:"max=64"`
	Subtotal money.Money `json:"subtotal" validate:"gte=0"`
}

// ValidateDiscount checks a code against an arbitrary subtotal without touching
// any session state. Rejections are part of the result, not an error status.
func ValidateDiscount(validator DiscountValidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if validator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount validator unavailable"))
			return
		}

		var payload validateDiscountPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res := validator.ValidateDiscountCode(r.Context(), validators.SanitizeString(payload.Code, 64), payload.Subtotal)
		responses.WriteSuccess(w, res)
	}
}
