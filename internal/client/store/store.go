package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/cartera/internal/client"
	"github.com/MrJamesThe3rd/cartera/internal/database"
)

const phoneIndex = "clients_phone_key"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectClientColumns = `id, name, phone, email, active, created_at, updated_at`

func scanClient(s scanner) (*client.Client, error) {
	var c client.Client
	if err := s.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *client.Client) error {
	query := `
		INSERT INTO clients (name, phone, email, active, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, c.Name, c.Phone, c.Email, c.Active).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, phoneIndex) {
			return client.ErrDuplicatePhone
		}

		return fmt.Errorf("creating client: %w", err)
	}

	return nil
}

func (s *Store) GetClient(ctx context.Context, id uuid.UUID) (*client.Client, error) {
	query := `SELECT ` + selectClientColumns + ` FROM clients WHERE id = $1`

	return s.getOne(ctx, query, id)
}

func (s *Store) GetClientByPhone(ctx context.Context, phone string) (*client.Client, error) {
	query := `SELECT ` + selectClientColumns + ` FROM clients WHERE phone = $1 AND phone <> ''`

	return s.getOne(ctx, query, phone)
}

func (s *Store) getOne(ctx context.Context, query string, arg any) (*client.Client, error) {
	c, err := scanClient(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, client.ErrNotFound
		}

		return nil, fmt.Errorf("getting client: %w", err)
	}

	return c, nil
}

func (s *Store) UpdateClient(ctx context.Context, c *client.Client) error {
	query := `
		UPDATE clients
		SET name = $1, phone = $2, email = $3, active = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query, c.Name, c.Phone, c.Email, c.Active, c.ID).Scan(&c.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return client.ErrNotFound
		case database.IsUniqueViolation(err, phoneIndex):
			return client.ErrDuplicatePhone
		}

		return fmt.Errorf("updating client: %w", err)
	}

	return nil
}

func (s *Store) DeleteClient(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		// A transaction may have been added since the count check.
		if database.IsForeignKeyViolation(err) {
			return client.ErrHasTransactions
		}

		return fmt.Errorf("deleting client: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}

	if n == 0 {
		return client.ErrNotFound
	}

	return nil
}

func (s *Store) ListClients(ctx context.Context, filter client.ListFilter) ([]*client.Client, error) {
	query := `SELECT ` + selectClientColumns + ` FROM clients WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Query != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR phone ILIKE $%d OR email ILIKE $%d)", argIdx, argIdx, argIdx)

		args = append(args, "%"+filter.Query+"%")
		argIdx++
	}

	if filter.ActiveOnly {
		query += " AND active"
	}

	query += " ORDER BY lower(name), created_at"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
		argIdx++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)

		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	var clients []*client.Client

	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}

		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clients: %w", err)
	}

	return clients, nil
}

func (s *Store) CountTransactions(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE client_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}

	return n, nil
}
