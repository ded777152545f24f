package coupon

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/shopfront/internal/pricing"
	"github.com/noah-isme/shopfront/internal/store"
)

var (
	// ErrCodeRequired is returned when validation is attempted with an empty code.
	ErrCodeRequired = errors.New("coupon code is required")
	// ErrCouponInvalid covers every rejection: unknown code and inactive coupon
	// alike. Callers get one uniform answer so the API does not leak which
	// codes exist.
	ErrCouponInvalid = errors.New("invalid coupon code")
)

// Querier captures the store lookup the validator needs.
type Querier interface {
	GetCouponByCode(ctx context.Context, code string) (store.Coupon, error)
}

// Service validates coupon codes. Validation is read-only; usage counting
// happens when an order is placed, not here.
type Service struct {
	Q Querier
}

// NormalizeCode trims and upper-cases a submitted code. Codes are stored
// upper-case, so lookups always go through this.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate returns the coupon for the given code if it exists and is active.
func (s *Service) Validate(ctx context.Context, code string) (store.Coupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return store.Coupon{}, ErrCodeRequired
	}
	c, err := s.Q.GetCouponByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Coupon{}, ErrCouponInvalid
		}
		return store.Coupon{}, err
	}
	if !c.IsActive {
		return store.Coupon{}, ErrCouponInvalid
	}
	return c, nil
}

// ToDiscount adapts a coupon to the pricing engine's discount input.
func ToDiscount(c store.Coupon) pricing.Discount {
	return pricing.Discount{Kind: c.DiscountType, Value: c.DiscountValue}
}
