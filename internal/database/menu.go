package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateMenuItemParams struct {
	Name     string
	Category string
	Price    pgtype.Numeric
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	const sql = `
		INSERT INTO menu_items (name, category, price)
		VALUES ($1, $2, $3)
		RETURNING id, name, category, price, is_active, created_at
	`
	var m MenuItem
	err := q.db.QueryRow(ctx, sql, arg.Name, arg.Category, arg.Price).
		Scan(&m.ID, &m.Name, &m.Category, &m.Price, &m.IsActive, &m.CreatedAt)
	return m, err
}

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	const sql = `
		SELECT id, name, category, price, is_active, created_at
		FROM menu_items
		WHERE id = $1 AND is_active = true
	`
	var m MenuItem
	err := q.db.QueryRow(ctx, sql, id).
		Scan(&m.ID, &m.Name, &m.Category, &m.Price, &m.IsActive, &m.CreatedAt)
	return m, err
}

type ListMenuItemsParams struct {
	Category pgtype.Text
}

func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	const sql = `
		SELECT id, name, category, price, is_active, created_at
		FROM menu_items
		WHERE is_active = true
		  AND ($1::text IS NULL OR category = $1)
		ORDER BY category, name
	`
	var category any
	if arg.Category.Valid {
		category = arg.Category.String
	}
	rows, err := q.db.Query(ctx, sql, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Price, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
