package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Staff struct {
	ID             uuid.UUID
	Name           string
	Email          string
	HashedPassword string
	Role           string
	CreatedAt      time.Time
}

type Customer struct {
	ID        uuid.UUID
	Name      string
	Type      string
	CreatedAt time.Time
}

type MenuItem struct {
	ID        uuid.UUID
	Name      string
	Category  string
	Price     pgtype.Numeric
	IsActive  bool
	CreatedAt time.Time
}

type Order struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	TotalAmount pgtype.Numeric
	CreatedAt   time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Position  int32
	Name      string
	Category  string
	UnitPrice pgtype.Numeric
	Quantity  int32
}
