package database

import (
	"context"

	"github.com/google/uuid"
)

type CreateStaffParams struct {
	Name           string
	Email          string
	HashedPassword string
	Role           string
}

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	const sql = `
		INSERT INTO staff (name, email, hashed_password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, hashed_password, role, created_at
	`
	var s Staff
	err := q.db.QueryRow(ctx, sql, arg.Name, arg.Email, arg.HashedPassword, arg.Role).
		Scan(&s.ID, &s.Name, &s.Email, &s.HashedPassword, &s.Role, &s.CreatedAt)
	return s, err
}

func (q *Queries) GetStaffByEmail(ctx context.Context, email string) (Staff, error) {
	const sql = `
		SELECT id, name, email, hashed_password, role, created_at
		FROM staff
		WHERE email = $1
	`
	var s Staff
	err := q.db.QueryRow(ctx, sql, email).
		Scan(&s.ID, &s.Name, &s.Email, &s.HashedPassword, &s.Role, &s.CreatedAt)
	return s, err
}

func (q *Queries) GetStaffByID(ctx context.Context, id uuid.UUID) (Staff, error) {
	const sql = `
		SELECT id, name, email, hashed_password, role, created_at
		FROM staff
		WHERE id = $1
	`
	var s Staff
	err := q.db.QueryRow(ctx, sql, id).
		Scan(&s.ID, &s.Name, &s.Email, &s.HashedPassword, &s.Role, &s.CreatedAt)
	return s, err
}
