package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/shopfront/internal/store"
)

// ErrNoItems is returned when an order arrives without purchasable lines.
var ErrNoItems = errors.New("order must contain at least one item")

// TxQuerier is the slice of the store an order-creation transaction touches.
type TxQuerier interface {
	CreateOrder(ctx context.Context, o store.Order) (store.Order, error)
	CreateOrderItem(ctx context.Context, item store.OrderItem) (store.OrderItem, error)
	IncrementCouponUsage(ctx context.Context, id uuid.UUID) error
}

// TxRunner executes a function within a database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(q TxQuerier) error) error
}

// PoolRunner is the production TxRunner backed by a pgx pool.
type PoolRunner struct {
	Pool *pgxpool.Pool
}

// RunInTx begins a transaction, hands a transaction-bound store to fn, and
// commits iff fn returns nil.
func (p PoolRunner) RunInTx(ctx context.Context, fn func(q TxQuerier) error) error {
	return pgx.BeginFunc(ctx, p.Pool, func(tx pgx.Tx) error {
		return fn(store.New(tx))
	})
}

// Service persists orders.
type Service struct {
	Tx TxRunner
}

// Create writes the order, its items, and the coupon usage increment as one
// transaction. The increment runs last, after the order and items exist, so a
// counted use always corresponds to a persisted order; any failure rolls back
// the lot.
func (s *Service) Create(ctx context.Context, o store.Order, items []store.OrderItem) (store.Order, error) {
	if len(items) == 0 {
		return store.Order{}, ErrNoItems
	}
	var created store.Order
	err := s.Tx.RunInTx(ctx, func(q TxQuerier) error {
		var err error
		created, err = q.CreateOrder(ctx, o)
		if err != nil {
			return err
		}
		for _, item := range items {
			item.OrderID = created.ID
			if _, err := q.CreateOrderItem(ctx, item); err != nil {
				return err
			}
		}
		if o.CouponID != nil {
			if err := q.IncrementCouponUsage(ctx, *o.CouponID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return store.Order{}, err
	}
	return created, nil
}
