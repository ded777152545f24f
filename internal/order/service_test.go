package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shopfront/internal/order"
	"github.com/noah-isme/shopfront/internal/store"
)

// fakeTx approximates a transaction: writes accumulate in a staging area and
// move to the committed state only when the function returns nil.
type fakeTx struct {
	mu         sync.Mutex
	orders     []store.Order
	items      []store.OrderItem
	usage      map[uuid.UUID]int32
	failItems  bool
	failBump   bool
	committed  int
	rolledBack int
}

type fakeTxView struct {
	parent *fakeTx
	orders []store.Order
	items  []store.OrderItem
	usage  map[uuid.UUID]int32
}

func (f *fakeTx) RunInTx(_ context.Context, fn func(q order.TxQuerier) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	view := &fakeTxView{parent: f, usage: make(map[uuid.UUID]int32)}
	if err := fn(view); err != nil {
		f.rolledBack++
		return err
	}
	f.orders = append(f.orders, view.orders...)
	f.items = append(f.items, view.items...)
	if f.usage == nil {
		f.usage = make(map[uuid.UUID]int32)
	}
	for id, n := range view.usage {
		f.usage[id] += n
	}
	f.committed++
	return nil
}

func (v *fakeTxView) CreateOrder(_ context.Context, o store.Order) (store.Order, error) {
	o.ID = uuid.New()
	v.orders = append(v.orders, o)
	return o, nil
}

func (v *fakeTxView) CreateOrderItem(_ context.Context, item store.OrderItem) (store.OrderItem, error) {
	if v.parent.failItems {
		return store.OrderItem{}, errors.New("insert failed")
	}
	item.ID = uuid.New()
	v.items = append(v.items, item)
	return item, nil
}

func (v *fakeTxView) IncrementCouponUsage(_ context.Context, id uuid.UUID) error {
	if v.parent.failBump {
		return errors.New("update failed")
	}
	v.usage[id]++
	return nil
}

func sampleOrder(couponID *uuid.UUID) store.Order {
	return store.Order{
		CustomerEmail:   "jo@example.com",
		CustomerName:    "Jo",
		ShippingAddress: "1 Main St",
		Subtotal:        12998,
		Tax:             1039,
		Discount:        1299,
		Total:           12738,
		CouponID:        couponID,
		Status:          "pending",
	}
}

func sampleItems() []store.OrderItem {
	return []store.OrderItem{
		{ProductID: uuid.New(), Quantity: 1, Price: 7999},
		{ProductID: uuid.New(), Quantity: 1, Price: 4999},
	}
}

func TestCreatePersistsOrderItemsAndUsage(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	svc := &order.Service{Tx: tx}
	couponID := uuid.New()

	created, err := svc.Create(context.Background(), sampleOrder(&couponID), sampleItems())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Len(t, tx.orders, 1)
	require.Len(t, tx.items, 2)
	for _, it := range tx.items {
		require.Equal(t, created.ID, it.OrderID)
	}
	require.Equal(t, int32(1), tx.usage[couponID])
}

func TestCreateWithoutCouponSkipsIncrement(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	svc := &order.Service{Tx: tx}

	_, err := svc.Create(context.Background(), sampleOrder(nil), sampleItems())
	require.NoError(t, err)
	require.Empty(t, tx.usage)
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	svc := &order.Service{Tx: tx}

	_, err := svc.Create(context.Background(), sampleOrder(nil), nil)
	require.ErrorIs(t, err, order.ErrNoItems)
	require.Zero(t, tx.committed)
}

func TestCreateItemFailureRollsBackEverything(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{failItems: true}
	svc := &order.Service{Tx: tx}
	couponID := uuid.New()

	_, err := svc.Create(context.Background(), sampleOrder(&couponID), sampleItems())
	require.Error(t, err)
	require.Empty(t, tx.orders)
	require.Empty(t, tx.items)
	require.Empty(t, tx.usage)
	require.Equal(t, 1, tx.rolledBack)
}

func TestCreateIncrementFailureRollsBackOrder(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{failBump: true}
	svc := &order.Service{Tx: tx}
	couponID := uuid.New()

	_, err := svc.Create(context.Background(), sampleOrder(&couponID), sampleItems())
	require.Error(t, err)
	require.Empty(t, tx.orders)
	require.Empty(t, tx.usage)
}

// Usage counting is a single atomic bump per order, so concurrent checkouts
// with the same coupon must land on exactly orders-placed increments.
func TestConcurrentCreatesCountEveryUse(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	svc := &order.Service{Tx: tx}
	couponID := uuid.New()

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), sampleOrder(&couponID), sampleItems())
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(n), tx.usage[couponID])
	require.Len(t, tx.orders, n)
}
