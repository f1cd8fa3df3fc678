package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tapas-pos/api/internal/database"
	"github.com/tapas-pos/api/internal/enum"
)

// Errors returned by the order service. Anything not matched by errors.Is
// against these sentinels is a storage failure.
var (
	ErrEmptyItems       = errors.New("items are required")
	ErrInvalidQuantity  = errors.New("quantity must be > 0")
	ErrInvalidPrice     = errors.New("unit price must be >= 0 with at most 2 decimals")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrOrderNotFound    = errors.New("order not found")
)

// Customer is an order's owning customer.
type Customer struct {
	ID   uuid.UUID
	Name string
	Type string
}

// OrderItem is one line of an order or of the in-progress cart: a price
// snapshot, not a menu reference.
type OrderItem struct {
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Quantity  int32
}

// Order is a confirmed purchase record.
type Order struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Customer  Customer
	Items     []OrderItem
	Total     decimal.Decimal
}

// TopTapasEntry is one entry of the top-tapas ranking.
type TopTapasEntry struct {
	Name     string
	Quantity int64
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	ListOrders(ctx context.Context) ([]database.ListOrdersRow, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	GetTopTapas(ctx context.Context) ([]database.GetTopTapasRow, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService implements the order backend: save, list, delete, top tapas.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService. store serves reads; newStore
// builds transaction-scoped stores for writes.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore}
}

// SaveOrder validates the items, resolves the customer, computes the payable
// total (tapas excluded) and persists the order with its items atomically.
func (s *OrderService) SaveOrder(ctx context.Context, customerID uuid.UUID, items []OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		// Prices carry at most cent precision so the NUMERIC(10,2) columns
		// store them exactly and re-read totals match PayableTotal.
		if item.UnitPrice.IsNegative() || !item.UnitPrice.Equal(item.UnitPrice.Round(2)) {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidPrice)
		}
		if !enum.IsValidCategory(item.Category) {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidCategory)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	customer, err := store.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	total := PayableTotal(items)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		CustomerID:  customerID,
		TotalAmount: DecimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	for i, item := range items {
		_, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   order.ID,
			Position:  int32(i),
			Name:      item.Name,
			Category:  item.Category,
			UnitPrice: DecimalToNumeric(item.UnitPrice),
			Quantity:  item.Quantity,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &Order{
		ID:        order.ID,
		CreatedAt: order.CreatedAt,
		Customer: Customer{
			ID:   customer.ID,
			Name: customer.Name,
			Type: customer.Type,
		},
		Items: items,
		Total: total,
	}, nil
}

// GetAllOrders returns all persisted orders with their customer resolved and
// items attached, newest first.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]Order, error) {
	rows, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]Order, 0, len(rows))
	for _, row := range rows {
		dbItems, err := s.store.ListOrderItemsByOrder(ctx, row.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		items := make([]OrderItem, len(dbItems))
		for i, it := range dbItems {
			items[i] = OrderItem{
				Name:      it.Name,
				Category:  it.Category,
				UnitPrice: NumericToDecimal(it.UnitPrice),
				Quantity:  it.Quantity,
			}
		}
		orders = append(orders, Order{
			ID:        row.ID,
			CreatedAt: row.CreatedAt,
			Customer: Customer{
				ID:   row.CustomerID,
				Name: row.CustomerName,
				Type: row.CustomerType,
			},
			Items: items,
			Total: NumericToDecimal(row.TotalAmount),
		})
	}
	return orders, nil
}

// DeleteOrder removes the order and its items. Returns ErrOrderNotFound when
// the order does not exist.
func (s *OrderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// GetTopTapas returns the item ranking by cumulative quantity across all
// orders, descending, name as tiebreak.
func (s *OrderService) GetTopTapas(ctx context.Context) ([]TopTapasEntry, error) {
	rows, err := s.store.GetTopTapas(ctx)
	if err != nil {
		return nil, fmt.Errorf("get top tapas: %w", err)
	}
	entries := make([]TopTapasEntry, len(rows))
	for i, row := range rows {
		entries[i] = TopTapasEntry{Name: row.Name, Quantity: row.TotalQty}
	}
	return entries, nil
}

// --- Helpers ---

// NumericToDecimal converts a pgtype.Numeric column value to a decimal.
// Invalid or null values collapse to zero.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalToNumeric converts a decimal to a pgtype.Numeric column value.
// Callers validate cent precision up front, so the fixed formatting is exact.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
