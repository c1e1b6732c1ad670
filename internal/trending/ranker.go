package trending

import "sort"

// Defaults applied when the caller passes non-positive values.
const (
	DefaultLimit     = 12
	DefaultMinRating = 3.5
)

// Product is the rating-aggregate view of a catalog product the ranker
// consumes.
type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ReviewCount int    `json:"reviewCount"`
	RatingSum   int64  `json:"ratingSum"`
}

// Scored annotates a product with its computed average rating and score.
// Score currently equals the average rating: an earlier design mixed review
// volume into the score and was deliberately dropped, so review count has no
// influence beyond producing the average.
type Scored struct {
	Product
	AverageRating float64 `json:"averageRating"`
	Score         float64 `json:"score"`
}

// AverageRating derives the mean rating, or 0 for unreviewed products.
func AverageRating(p Product) float64 {
	if p.ReviewCount <= 0 {
		return 0
	}
	return float64(p.RatingSum) / float64(p.ReviewCount)
}

// Rank scores products by average rating, keeps those at or above minRating
// with a positive score, and returns them in descending score order
// truncated to limit. Ties keep their input order (stable sort).
func Rank(products []Product, limit int, minRating float64) []Scored {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if minRating <= 0 {
		minRating = DefaultMinRating
	}
	out := make([]Scored, 0, len(products))
	for _, p := range products {
		avg := AverageRating(p)
		if avg < minRating || avg <= 0 {
			continue
		}
		out = append(out, Scored{Product: p, AverageRating: avg, Score: avg})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
