package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, allowing queries to run
// inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides hand-written queries over the shopfront schema.
type Store struct {
	db DBTX
}

// New constructs a Store bound to the given connection source.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// WithTx returns a Store whose queries execute within the provided transaction.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{db: tx}
}

// AdminUser is the single back-office account.
type AdminUser struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
}

// Category groups products, optionally under a parent category.
type Category struct {
	ID       uuid.UUID
	Name     string
	Slug     string
	ParentID *uuid.UUID
}

// Product is a catalog entry. Dimensions and actual weight feed the shipping
// calculator; Price and OriginalPrice are minor units.
type Product struct {
	ID            uuid.UUID
	Name          string
	Description   *string
	SKU           string
	Price         int64
	OriginalPrice *int64
	Images        []string
	CategoryID    *uuid.UUID
	Stock         int32
	Length        *float64
	Width         *float64
	Height        *float64
	ActualWeight  *float64
	Status        string
}

// Carrier is a shipping carrier referenced by rates and orders.
type Carrier struct {
	ID       uuid.UUID
	Name     string
	Logo     *string
	IsActive bool
}

// Rate is a carrier weight band with a flat price in minor units. WeightType is
// informational ("actual" or "volumetric") and plays no part in resolution.
type Rate struct {
	ID         uuid.UUID
	CarrierID  uuid.UUID
	WeightType string
	MinWeight  float64
	MaxWeight  float64
	Price      int64
	CreatedAt  time.Time
}

// Coupon carries a discount rule. DiscountValue is scaled by 100: minor units
// for fixed coupons, basis points for percentage coupons ("10.00" → 1000).
type Coupon struct {
	ID            uuid.UUID
	Code          string
	DiscountType  string
	DiscountValue int64
	IsActive      bool
	UsageCount    int32
}

// Order is a priced snapshot; monetary fields are minor units.
type Order struct {
	ID              uuid.UUID
	CustomerEmail   string
	CustomerName    string
	ShippingAddress string
	CarrierID       *uuid.UUID
	Subtotal        int64
	ShippingCost    int64
	Tax             int64
	Discount        int64
	Total           int64
	CouponID        *uuid.UUID
	Status          string
	CreatedAt       time.Time
}

// OrderItem captures a purchased line with the unit price at purchase time.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	Price     int64
}
