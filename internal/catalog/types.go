package catalog

import (
	"time"

	"github.com/technest-ghazi/backend-bnpl/internal/pricing"
)

// Product is a storefront catalog entry. ReviewCount and RatingSum are
// denormalized aggregates maintained by the reviews package; the trending
// ranker derives average ratings from them.
type Product struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Description string        `json:"description"`
	Price       pricing.Money `json:"price"`
	Stock       int32         `json:"stock"`
	ReviewCount int32         `json:"reviewCount"`
	RatingSum   int64         `json:"ratingSum"`
	Active      bool          `json:"active"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// AverageRating derives the mean rating, or 0 for unreviewed products.
func (p Product) AverageRating() float64 {
	if p.ReviewCount <= 0 {
		return 0
	}
	return float64(p.RatingSum) / float64(p.ReviewCount)
}
