package store

import (
	"context"

	"github.com/google/uuid"
)

const couponColumns = `id, code, discount_type, discount_value, is_active, usage_count`

// ListCoupons returns all coupons ordered by code.
func (s *Store) ListCoupons(ctx context.Context) ([]Coupon, error) {
	rows, err := s.db.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Coupon, 0)
	for rows.Next() {
		var c Coupon
		if err := rows.Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.IsActive, &c.UsageCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCouponByCode returns the coupon with the exact (upper-cased) code.
func (s *Store) GetCouponByCode(ctx context.Context, code string) (Coupon, error) {
	const q = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`
	var c Coupon
	err := s.db.QueryRow(ctx, q, code).Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.IsActive, &c.UsageCount)
	return c, err
}

// GetCoupon returns a coupon by id.
func (s *Store) GetCoupon(ctx context.Context, id uuid.UUID) (Coupon, error) {
	const q = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	var c Coupon
	err := s.db.QueryRow(ctx, q, id).Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.IsActive, &c.UsageCount)
	return c, err
}

// CreateCoupon inserts a coupon.
func (s *Store) CreateCoupon(ctx context.Context, c Coupon) (Coupon, error) {
	const q = `
		INSERT INTO coupons (code, discount_type, discount_value, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + couponColumns
	var out Coupon
	err := s.db.QueryRow(ctx, q, c.Code, c.DiscountType, c.DiscountValue, c.IsActive).
		Scan(&out.ID, &out.Code, &out.DiscountType, &out.DiscountValue, &out.IsActive, &out.UsageCount)
	return out, err
}

// UpdateCoupon replaces the mutable fields of a coupon. UsageCount is never
// written here; only IncrementCouponUsage touches it.
func (s *Store) UpdateCoupon(ctx context.Context, c Coupon) (Coupon, error) {
	const q = `
		UPDATE coupons SET code = $2, discount_type = $3, discount_value = $4, is_active = $5
		WHERE id = $1
		RETURNING ` + couponColumns
	var out Coupon
	err := s.db.QueryRow(ctx, q, c.ID, c.Code, c.DiscountType, c.DiscountValue, c.IsActive).
		Scan(&out.ID, &out.Code, &out.DiscountType, &out.DiscountValue, &out.IsActive, &out.UsageCount)
	return out, err
}

// DeleteCoupon removes a coupon. It reports whether a row was deleted.
func (s *Store) DeleteCoupon(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// IncrementCouponUsage bumps the usage counter in a single statement so
// concurrent orders never lose an increment.
func (s *Store) IncrementCouponUsage(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE coupons SET usage_count = usage_count + 1 WHERE id = $1`, id)
	return err
}
