package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, customer_email, customer_name, shipping_address, shipping_carrier_id, subtotal, shipping_cost, tax, discount, total, coupon_id, status, created_at`

// ListOrders returns all orders, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := s.db.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetOrder returns a single order by id.
func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// CreateOrder inserts the priced order snapshot.
func (s *Store) CreateOrder(ctx context.Context, o Order) (Order, error) {
	const q = `
		INSERT INTO orders (customer_email, customer_name, shipping_address, shipping_carrier_id, subtotal, shipping_cost, tax, discount, total, coupon_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + orderColumns
	row := s.db.QueryRow(ctx, q,
		o.CustomerEmail, o.CustomerName, o.ShippingAddress, o.CarrierID,
		o.Subtotal, o.ShippingCost, o.Tax, o.Discount, o.Total, o.CouponID, o.Status)
	return scanOrder(row)
}

// CreateOrderItem inserts a purchased line for an order.
func (s *Store) CreateOrderItem(ctx context.Context, item OrderItem) (OrderItem, error) {
	const q = `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, order_id, product_id, quantity, price`
	var out OrderItem
	err := s.db.QueryRow(ctx, q, item.OrderID, item.ProductID, item.Quantity, item.Price).
		Scan(&out.ID, &out.OrderID, &out.ProductID, &out.Quantity, &out.Price)
	return out, err
}

// OrderItems returns the lines belonging to an order.
func (s *Store) OrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	const q = `SELECT id, order_id, product_id, quantity, price FROM order_items WHERE order_id = $1 ORDER BY id`
	rows, err := s.db.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]OrderItem, 0)
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateOrderStatus sets the status of an order and returns the updated row.
func (s *Store) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (Order, error) {
	const q = `UPDATE orders SET status = $2 WHERE id = $1 RETURNING ` + orderColumns
	row := s.db.QueryRow(ctx, q, id, status)
	return scanOrder(row)
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerEmail, &o.CustomerName, &o.ShippingAddress,
		&o.CarrierID, &o.Subtotal, &o.ShippingCost, &o.Tax, &o.Discount, &o.Total,
		&o.CouponID, &o.Status, &o.CreatedAt)
	return o, err
}
