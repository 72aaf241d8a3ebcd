// Package catalog remembers the last unit price charged for each product so
// new line items can be prefilled.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

type Price struct {
	Product   string
	UnitPrice decimal.Decimal
	Uses      int
	UpdatedAt time.Time
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	// FindPrice returns nil when the product has never been sold.
	FindPrice(ctx context.Context, product string) (*Price, error)
	UpsertPrice(ctx context.Context, product string, unitPrice decimal.Decimal) error
	SearchProducts(ctx context.Context, prefix string, limit int) ([]Price, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the last price for the product, or nil if unknown.
func (s *Service) Suggest(ctx context.Context, product string) (*Price, error) {
	name := transaction.NormalizeProduct(product)
	if name == "" {
		return nil, nil
	}

	return s.repo.FindPrice(ctx, name)
}

// Search lists known products starting with prefix, most used first.
func (s *Service) Search(ctx context.Context, prefix string, limit int) ([]Price, error) {
	if limit <= 0 {
		limit = 10
	}

	return s.repo.SearchProducts(ctx, transaction.NormalizeProduct(prefix), limit)
}

// Learn remembers the unit prices of the given line items. Zero-priced
// lines (gifts, samples) are not remembered.
func (s *Service) Learn(ctx context.Context, items []transaction.LineItem) error {
	for _, it := range items {
		if it.Product == "" || !it.UnitPrice.IsPositive() {
			continue
		}

		if err := s.repo.UpsertPrice(ctx, it.Product, it.UnitPrice); err != nil {
			return fmt.Errorf("learning price for %q: %w", it.Product, err)
		}
	}

	return nil
}
