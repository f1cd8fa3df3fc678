package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateOrderParams struct {
	CustomerID  uuid.UUID
	TotalAmount pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	const sql = `
		INSERT INTO orders (customer_id, total_amount)
		VALUES ($1, $2)
		RETURNING id, customer_id, total_amount, created_at
	`
	var o Order
	err := q.db.QueryRow(ctx, sql, arg.CustomerID, arg.TotalAmount).
		Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &o.CreatedAt)
	return o, err
}

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	Position  int32
	Name      string
	Category  string
	UnitPrice pgtype.Numeric
	Quantity  int32
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	const sql = `
		INSERT INTO order_items (order_id, position, name, category, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, order_id, position, name, category, unit_price, quantity
	`
	var oi OrderItem
	err := q.db.QueryRow(ctx, sql,
		arg.OrderID, arg.Position, arg.Name, arg.Category, arg.UnitPrice, arg.Quantity).
		Scan(&oi.ID, &oi.OrderID, &oi.Position, &oi.Name, &oi.Category, &oi.UnitPrice, &oi.Quantity)
	return oi, err
}

// ListOrdersRow is an order joined with its owning customer.
type ListOrdersRow struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	TotalAmount  pgtype.Numeric
	CreatedAt    time.Time
	CustomerName string
	CustomerType string
}

func (q *Queries) ListOrders(ctx context.Context) ([]ListOrdersRow, error) {
	const sql = `
		SELECT o.id, o.customer_id, o.total_amount, o.created_at, c.name, c.type
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		ORDER BY o.created_at DESC, o.id
	`
	rows, err := q.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []ListOrdersRow
	for rows.Next() {
		var o ListOrdersRow
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &o.CreatedAt, &o.CustomerName, &o.CustomerType); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	const sql = `
		SELECT id, order_id, position, name, category, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`
	rows, err := q.db.Query(ctx, sql, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var oi OrderItem
		if err := rows.Scan(&oi.ID, &oi.OrderID, &oi.Position, &oi.Name, &oi.Category, &oi.UnitPrice, &oi.Quantity); err != nil {
			return nil, err
		}
		items = append(items, oi)
	}
	return items, rows.Err()
}

// DeleteOrder removes an order and (via cascade) its items. Returns
// pgx.ErrNoRows when the order does not exist.
func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const sql = `
		DELETE FROM orders
		WHERE id = $1
		RETURNING id
	`
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, sql, id).Scan(&deleted)
	if err != nil {
		return uuid.Nil, err
	}
	return deleted, nil
}

// GetTopTapasRow is one entry of the top-tapas ranking.
type GetTopTapasRow struct {
	Name     string
	TotalQty int64
}

// GetTopTapas ranks line items of every category by cumulative quantity
// across all orders. Ties are broken by name so the ranking is stable.
func (q *Queries) GetTopTapas(ctx context.Context) ([]GetTopTapasRow, error) {
	const sql = `
		SELECT oi.name, SUM(oi.quantity)::bigint AS total_qty
		FROM order_items oi
		GROUP BY oi.name
		ORDER BY total_qty DESC, oi.name
	`
	rows, err := q.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GetTopTapasRow
	for rows.Next() {
		var e GetTopTapasRow
		if err := rows.Scan(&e.Name, &e.TotalQty); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
