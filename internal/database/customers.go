package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateCustomerParams struct {
	Name string
	Type string
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	const sql = `
		INSERT INTO customers (name, type)
		VALUES ($1, $2)
		RETURNING id, name, type, created_at
	`
	var c Customer
	err := q.db.QueryRow(ctx, sql, arg.Name, arg.Type).
		Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt)
	return c, err
}

func (q *Queries) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	const sql = `
		SELECT id, name, type, created_at
		FROM customers
		WHERE id = $1
	`
	var c Customer
	err := q.db.QueryRow(ctx, sql, id).
		Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt)
	return c, err
}

type ListCustomersParams struct {
	Search pgtype.Text
	Limit  int32
	Offset int32
}

func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]Customer, error) {
	const sql = `
		SELECT id, name, type, created_at
		FROM customers
		WHERE ($1::text IS NULL OR name ILIKE '%' || $1 || '%')
		ORDER BY name, id
		LIMIT $2 OFFSET $3
	`
	var search any
	if arg.Search.Valid {
		search = arg.Search.String
	}
	rows, err := q.db.Query(ctx, sql, search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
