package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/catalog"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindPrice(ctx context.Context, product string) (*catalog.Price, error) {
	query := `
		SELECT product, unit_price, uses, updated_at
		FROM product_prices
		WHERE product = $1
	`

	var p catalog.Price

	err := s.db.QueryRowContext(ctx, query, product).Scan(&p.Product, &p.UnitPrice, &p.Uses, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("finding price: %w", err)
	}

	return &p, nil
}

func (s *Store) UpsertPrice(ctx context.Context, product string, unitPrice decimal.Decimal) error {
	query := `
		INSERT INTO product_prices (product, unit_price, uses, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (product) DO UPDATE
		SET unit_price = EXCLUDED.unit_price, uses = product_prices.uses + 1, updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, product, unitPrice); err != nil {
		return fmt.Errorf("upserting price: %w", err)
	}

	return nil
}

func (s *Store) SearchProducts(ctx context.Context, prefix string, limit int) ([]catalog.Price, error) {
	query := `
		SELECT product, unit_price, uses, updated_at
		FROM product_prices
		WHERE product ILIKE $1 || '%'
		ORDER BY uses DESC, product
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	defer rows.Close()

	var prices []catalog.Price

	for rows.Next() {
		var p catalog.Price
		if err := rows.Scan(&p.Product, &p.UnitPrice, &p.Uses, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning price: %w", err)
		}

		prices = append(prices, p)
	}

	return prices, rows.Err()
}
