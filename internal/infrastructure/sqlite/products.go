package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/macrolens/scanner/internal/domain"
)

const productColumns = `
	barcode, name, COALESCE(brand, '') AS brand, COALESCE(category, '') AS category,
	calories, protein, carbs, sugar, fats, saturated_fats, fiber, sodium,
	allergens, health_score, is_healthy, cached_at`

// Every column is overwritten on conflict: last writer wins, no field merge.
const upsertProductSQL = `
	INSERT INTO products (
		barcode, name, brand, category, calories, protein, carbs, sugar, fats,
		saturated_fats, fiber, sodium, allergens, health_score, is_healthy, cached_at
	)
	VALUES (
		:barcode, :name, NULLIF(:brand, ''), NULLIF(:category, ''), :calories, :protein, :carbs, :sugar, :fats,
		:saturated_fats, :fiber, :sodium, :allergens, :health_score, :is_healthy, :cached_at
	)
	ON CONFLICT(barcode) DO UPDATE SET
		name = excluded.name,
		brand = excluded.brand,
		category = excluded.category,
		calories = excluded.calories,
		protein = excluded.protein,
		carbs = excluded.carbs,
		sugar = excluded.sugar,
		fats = excluded.fats,
		saturated_fats = excluded.saturated_fats,
		fiber = excluded.fiber,
		sodium = excluded.sodium,
		allergens = excluded.allergens,
		health_score = excluded.health_score,
		is_healthy = excluded.is_healthy,
		cached_at = excluded.cached_at`

// Get looks up a product by barcode. Returns domain.ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, barcode string) (*domain.Product, error) {
	var p domain.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = ? LIMIT 1`
	if err := s.db.GetContext(ctx, &p, query, barcode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get product %s: %v", domain.ErrStorage, barcode, err)
	}
	return &p, nil
}

// Upsert inserts or fully replaces the product keyed by its barcode.
func (s *Store) Upsert(ctx context.Context, product *domain.Product) error {
	if product == nil || product.Barcode == "" {
		return fmt.Errorf("%w: product barcode is required", domain.ErrValidation)
	}
	row := *product
	row.CachedAt = s.now().UTC()
	if _, err := s.db.NamedExecContext(ctx, upsertProductSQL, &row); err != nil {
		return fmt.Errorf("%w: upsert product %s: %v", domain.ErrStorage, product.Barcode, err)
	}
	return nil
}

// UpsertBatch upserts every product inside one transaction.
func (s *Store) UpsertBatch(ctx context.Context, products []domain.Product) (int, error) {
	for i := range products {
		if products[i].Barcode == "" {
			return 0, fmt.Errorf("%w: product %d has no barcode", domain.ErrValidation, i)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin batch: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, upsertProductSQL)
	if err != nil {
		return 0, fmt.Errorf("%w: prepare batch: %v", domain.ErrStorage, err)
	}
	defer stmt.Close()

	cachedAt := s.now().UTC()
	for i := range products {
		row := products[i]
		row.CachedAt = cachedAt
		if _, err := stmt.ExecContext(ctx, &row); err != nil {
			return 0, fmt.Errorf("%w: upsert product %s: %v", domain.ErrStorage, row.Barcode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit batch: %v", domain.ErrStorage, err)
	}
	return len(products), nil
}

// FindAlternatives returns up to limit products in category scoring at
// least minHealthScore, best first, never including excludeBarcode.
func (s *Store) FindAlternatives(ctx context.Context, category, excludeBarcode string, minHealthScore, limit int) ([]domain.Product, error) {
	products := []domain.Product{}
	if category == "" || limit <= 0 {
		return products, nil
	}

	query := `SELECT ` + productColumns + ` FROM products
		WHERE category = ? AND barcode != ? AND health_score >= ?
		ORDER BY health_score DESC, barcode ASC
		LIMIT ?`
	if err := s.db.SelectContext(ctx, &products, query, category, excludeBarcode, minHealthScore, limit); err != nil {
		return nil, fmt.Errorf("%w: find alternatives: %v", domain.ErrStorage, err)
	}
	return products, nil
}

// Count returns the number of cached products.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("%w: count products: %v", domain.ErrStorage, err)
	}
	return n, nil
}

// List returns cached products ordered by name. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]domain.Product, error) {
	products := []domain.Product{}
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name ASC, barcode ASC`
	var err error
	if limit > 0 {
		err = s.db.SelectContext(ctx, &products, query+` LIMIT ?`, limit)
	} else {
		err = s.db.SelectContext(ctx, &products, query)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %v", domain.ErrStorage, err)
	}
	return products, nil
}
