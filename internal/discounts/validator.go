package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/money"
)

// Shopper-facing rejection messages.
const (
	MsgEmptyCode   = "Please enter a discount code"
	MsgInvalidCode = "Invalid discount code"
	MsgNotUsable   = "Discount code is not valid or has expired"
	MsgUnavailable = "Unable to validate discount code. Please try again."
)

// Outcome labels a validation for metrics and logs.
type Outcome string

const (
	OutcomeApplied       Outcome = "applied"
	OutcomeEmptyCode     Outcome = "empty_code"
	OutcomeNotFound      Outcome = "not_found"
	OutcomeNotUsable     Outcome = "not_usable"
	OutcomeBelowMinimum  Outcome = "below_minimum"
	OutcomeAboveMaximum  Outcome = "above_maximum"
	OutcomeLookupFailure Outcome = "lookup_failed"
)

// Result is the outcome of validating one code against one subtotal.
type Result struct {
	IsValid        bool         `json:"isValid"`
	Discount       *Summary     `json:"discount,omitempty"`
	DiscountAmount *money.Money `json:"discountAmount,omitempty"`
	FinalPrice     *money.Money `json:"finalPrice,omitempty"`
	FreeShipping   bool         `json:"freeShipping,omitempty"`
	Error          string       `json:"error,omitempty"`
	// Retryable is set when the lookup itself failed and the same request may succeed later.
	Retryable bool    `json:"retryable,omitempty"`
	Outcome   Outcome `json:"-"`

	// Resolved is the discount definition behind a successful result.
	Resolved *Discount `json:"-"`
}

// Amount returns the discount amount, or zero for a rejected result.
func (r Result) Amount() money.Money {
	if r.DiscountAmount == nil {
		return 0
	}
	return *r.DiscountAmount
}

func reject(outcome Outcome, msg string) Result {
	return Result{Outcome: outcome, Error: msg}
}

// ValidatorParams groups dependencies for the validator.
type ValidatorParams struct {
	Lookup  Lookup
	Metrics *metrics.DiscountMetrics
	Logger  *logger.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Validator applies the discount business rules on top of a Lookup.
type Validator struct {
	lookup  Lookup
	metrics *metrics.DiscountMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewValidator(params ValidatorParams) (*Validator, error) {
	if params.Lookup == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount lookup is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Validator{
		lookup:  params.Lookup,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

// ValidateDiscountCode decides whether code applies to subtotal and how much it takes off.
// Rejections are reported in the Result; the method itself never fails.
func (v *Validator) ValidateDiscountCode(ctx context.Context, code string, subtotal money.Money) Result {
	res := v.validate(ctx, code, subtotal)
	v.metrics.IncOutcome(string(res.Outcome))
	return res
}

func (v *Validator) validate(ctx context.Context, code string, subtotal money.Money) Result {
	code = strings.TrimSpace(code)
	if code == "" {
		return reject(OutcomeEmptyCode, MsgEmptyCode)
	}

	started := time.Now()
	d, err := v.lookup.FindByCode(ctx, code)
	switch {
	case errors.Is(err, ErrNotFound):
		v.metrics.ObserveLookup("not_found", time.Since(started))
		return reject(OutcomeNotFound, MsgInvalidCode)
	case err != nil:
		v.metrics.ObserveLookup("error", time.Since(started))
		if v.logg != nil {
			v.logg.Error(v.logg.WithField(ctx, "discount_code", code), "discount lookup failed", err)
		}
		res := reject(OutcomeLookupFailure, MsgUnavailable)
		res.Retryable = true
		return res
	}
	v.metrics.ObserveLookup("found", time.Since(started))

	return Evaluate(d, subtotal, v.now())
}

// Evaluate applies the usability, bounds, amount and clamping rules to a resolved discount.
func Evaluate(d Discount, subtotal money.Money, now time.Time) Result {
	if d.Benefit == nil {
		d.Benefit = Percentage{}
	}
	if !d.CanBeUsed(now) {
		return reject(OutcomeNotUsable, MsgNotUsable)
	}
	if d.MinimumAmount != nil && subtotal < *d.MinimumAmount {
		return reject(OutcomeBelowMinimum, fmt.Sprintf("Minimum order amount of %s is required", d.MinimumAmount.Display()))
	}
	if d.MaximumAmount != nil && subtotal > *d.MaximumAmount {
		return reject(OutcomeAboveMaximum, fmt.Sprintf("Maximum order amount of %s exceeded", d.MaximumAmount.Display()))
	}

	amount := d.Benefit.Amount(subtotal)
	if amount < 0 {
		amount = 0
	}
	amount = money.Min(amount, subtotal)
	final := subtotal - amount

	summary := Summarize(d)
	return Result{
		IsValid:        true,
		Discount:       &summary,
		DiscountAmount: &amount,
		FinalPrice:     &final,
		FreeShipping:   d.Benefit.WaivesShipping(),
		Outcome:        OutcomeApplied,
		Resolved:       &d,
	}
}
