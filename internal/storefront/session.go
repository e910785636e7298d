package storefront

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/discounts"
	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/internal/storage"
	"github.com/angelmondragon/storefront/internal/wishlist"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/money"
)

// DiscountValidator is satisfied by *discounts.Validator.
type DiscountValidator interface {
	ValidateDiscountCode(ctx context.Context, code string, subtotal money.Money) discounts.Result
}

// AppliedDiscount is the persisted record of the code a shopper applied.
type AppliedDiscount struct {
	Code      string    `json:"code"`
	AppliedAt time.Time `json:"appliedAt"`
}

// Totals is the priced view of a session's cart.
type Totals struct {
	pricing.Totals
	ItemCount       int                `json:"itemCount"`
	AppliedDiscount *discounts.Summary `json:"appliedDiscount,omitempty"`
	// DiscountNotice explains why an applied code contributed nothing on this read.
	DiscountNotice string `json:"discountNotice,omitempty"`
}

// Session binds one shopper's cart, wishlist and applied discount.
type Session struct {
	ID       string
	Cart     *cart.Store
	Wishlist *wishlist.Store

	mu        sync.Mutex
	applied   *AppliedDiscount
	st        storage.Storage
	validator DiscountValidator
	calc      pricing.Calculator
	logg      *logger.Logger
	now       func() time.Time
}

func (s *Session) discountKey() storage.Key {
	return storage.Key{Session: s.ID, Name: storage.DocDiscount}
}

// AppliedCode returns the code currently applied, if any.
func (s *Session) AppliedCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied == nil {
		return ""
	}
	return s.applied.Code
}

// ApplyDiscount validates code against the current subtotal and, when it applies,
// remembers it for later totals. A rejected code leaves the session untouched.
func (s *Session) ApplyDiscount(ctx context.Context, code string) (discounts.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtotal := s.Cart.TotalPrice()
	res := s.validator.ValidateDiscountCode(ctx, code, subtotal)

	ctx = s.logContext(ctx, map[string]any{"discount_outcome": string(res.Outcome)})
	if !res.IsValid {
		s.logInfo(ctx, "discount code rejected")
		return res, nil
	}

	applied := &AppliedDiscount{Code: strings.TrimSpace(code), AppliedAt: s.now()}
	if res.Resolved != nil && res.Resolved.Code != "" {
		applied.Code = res.Resolved.Code
	}
	s.applied = applied
	s.logInfo(ctx, "discount code applied")

	if err := storage.SaveJSON(ctx, s.st, s.discountKey(), applied); err != nil {
		return res, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist applied discount")
	}
	return res, nil
}

// MoveToCart adds one unit of a saved product to the cart, priced from the wishlist
// snapshot, and removes it from the wishlist. It reports false when the product is
// not saved. A cart persist failure still completes the move in memory.
func (s *Session) MoveToCart(ctx context.Context, productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.Wishlist.Product(productID)
	if !ok {
		return false, nil
	}
	addErr := s.Cart.AddItem(ctx, cart.ItemFromProduct(p), 1)
	if addErr != nil && !pkgerrors.IsCode(addErr, pkgerrors.CodeDependency) {
		return false, addErr
	}
	if err := s.Wishlist.RemoveItem(ctx, productID); err != nil {
		return true, err
	}
	s.logInfo(s.logContext(ctx, map[string]any{"product_id": productID}), "wishlist item moved to cart")
	return true, addErr
}

// RemoveDiscount forgets the applied code.
func (s *Session) RemoveDiscount(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropLocked(ctx)
}

func (s *Session) dropLocked(ctx context.Context) error {
	s.applied = nil
	if err := s.st.Delete(ctx, s.discountKey()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove applied discount")
	}
	return nil
}

// Totals prices the cart. An applied code is re-validated against the current subtotal;
// a code that no longer applies is dropped and the reason reported in DiscountNotice.
// When the discount backend is unavailable the code is kept but contributes nothing.
func (s *Session) Totals(ctx context.Context) (Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.Cart.Snapshot()
	in := pricing.Input{Subtotal: snap.TotalPrice}
	out := Totals{ItemCount: snap.TotalQuantity}

	if s.applied != nil {
		res := s.validator.ValidateDiscountCode(ctx, s.applied.Code, snap.TotalPrice)
		switch {
		case res.IsValid:
			in.Discount = res.Amount()
			in.FreeShipping = res.FreeShipping
			out.AppliedDiscount = res.Discount
		case res.Retryable:
			out.DiscountNotice = res.Error
		default:
			out.DiscountNotice = res.Error
			s.logInfo(s.logContext(ctx, map[string]any{"discount_code": s.applied.Code}), "applied discount no longer valid, dropping")
			if err := s.dropLocked(ctx); err != nil {
				out.Totals = s.calc.Calculate(in)
				return out, err
			}
		}
	}

	out.Totals = s.calc.Calculate(in)
	return out, nil
}

func (s *Session) logContext(ctx context.Context, fields map[string]any) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithFields(s.logg.WithSessionID(ctx, s.ID), fields)
}

func (s *Session) logInfo(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Info(ctx, msg)
	}
}
