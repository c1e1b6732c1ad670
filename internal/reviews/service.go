package reviews

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/technest-ghazi/backend-bnpl/internal/common"
)

// Review is one customer rating of a product.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Rating    int32     `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// cacheInvalidator lets the service drop derived caches after a write.
type cacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service persists reviews and keeps the product rating aggregates that
// feed the trending ranker in sync.
type Service struct {
	Pool     *pgxpool.Pool
	Trending cacheInvalidator
}

// Create stores a review and folds it into the product aggregates in a
// single statement so the aggregates can never drift from the review rows.
func (s *Service) Create(ctx context.Context, userID, productID string, rating int32, comment string) (Review, error) {
	if s == nil || s.Pool == nil {
		return Review{}, errors.New("reviews service not configured")
	}
	if rating < 1 || rating > 5 {
		return Review{}, common.NewAppError("VALIDATION", "rating must be between 1 and 5", http.StatusBadRequest, nil)
	}
	var rev Review
	err := s.Pool.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO reviews (product_id, user_id, rating, comment)
			VALUES ($1::uuid, $2::uuid, $3, $4)
			RETURNING id::text, product_id, user_id::text, rating, comment, created_at
		), agg AS (
			UPDATE products p
			SET review_count = review_count + 1,
			    rating_sum = rating_sum + ins.rating,
			    updated_at = now()
			FROM ins
			WHERE p.id = ins.product_id
		)
		SELECT id, product_id::text, user_id, rating, comment, created_at FROM ins`,
		productID, userID, rating, comment,
	).Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.CreatedAt)
	if err != nil {
		return Review{}, err
	}
	if s.Trending != nil {
		s.Trending.Invalidate(ctx)
	}
	return rev, nil
}

// ListByProduct returns a page of reviews for a product, newest first.
func (s *Service) ListByProduct(ctx context.Context, productID string, page, limit int32) ([]Review, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit
	rows, err := s.Pool.Query(ctx, `
		SELECT id::text, product_id::text, user_id::text, rating, comment, created_at
		FROM reviews
		WHERE product_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Review, 0)
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

// HasUserReviewed reports whether the user already reviewed the product.
func (s *Service) HasUserReviewed(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reviews WHERE user_id = $1::uuid AND product_id = $2::uuid
		)`, userID, productID).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}
	return exists, nil
}
