package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested product could not be located.
var ErrNotFound = errors.New("product not found")

// Store provides product persistence.
type Store struct {
	Pool *pgxpool.Pool
}

const productColumns = `id::text, title, slug, description, price, stock,
	review_count, rating_sum, active, created_at, updated_at`

// List returns active products ordered by creation time.
func (s *Store) List(ctx context.Context, limit, offset int32) ([]Product, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE active
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// Count returns the number of active products.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE active`).Scan(&total)
	return total, err
}

// GetBySlug loads an active product by slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (Product, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE slug = $1 AND active`, slug)
	return scanProduct(row)
}

// Get loads a product by id regardless of active flag.
func (s *Store) Get(ctx context.Context, id string) (Product, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1::uuid`, id)
	return scanProduct(row)
}

// ListRated returns all active products with at least one review, the input
// set for trending ranking.
func (s *Store) ListRated(ctx context.Context) ([]Product, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE active AND review_count > 0
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// AddRating folds one review into the product's denormalized aggregates.
func (s *Store) AddRating(ctx context.Context, productID string, rating int32) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE products
		SET review_count = review_count + 1,
		    rating_sum = rating_sum + $2,
		    updated_at = now()
		WHERE id = $1::uuid`, productID, rating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Price, &p.Stock,
		&p.ReviewCount, &p.RatingSum, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}
