package trending

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/technest-ghazi/backend-bnpl/internal/catalog"
)

const cacheKey = "trending:products:v1"

type ratedProvider interface {
	Rated(ctx context.Context) ([]catalog.Product, error)
}

// Service computes the trending product list from the denormalized rating
// aggregates and caches the result in Redis. A cold or unavailable cache
// falls back to computing from the database.
type Service struct {
	Catalog   ratedProvider
	Redis     redis.UniversalClient
	TTL       time.Duration
	Limit     int
	MinRating float64
	Log       zerolog.Logger
}

func NewService(catalogSvc ratedProvider, rdb redis.UniversalClient, ttl time.Duration, limit int, minRating float64, log zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if minRating <= 0 {
		minRating = DefaultMinRating
	}
	return &Service{Catalog: catalogSvc, Redis: rdb, TTL: ttl, Limit: limit, MinRating: minRating, Log: log}
}

// Trending returns the ranked list, serving from cache when possible.
func (s *Service) Trending(ctx context.Context) ([]Scored, error) {
	if s.Redis != nil {
		raw, err := s.Redis.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var cached []Scored
			if unmarshalErr := json.Unmarshal(raw, &cached); unmarshalErr == nil {
				return cached, nil
			}
			s.Log.Warn().Msg("trending cache entry corrupt, recomputing")
		} else if !errors.Is(err, redis.Nil) {
			s.Log.Warn().Err(err).Msg("trending cache read failed")
		}
	}

	scored, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if raw, err := json.Marshal(scored); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, raw, s.TTL).Err(); err != nil {
				s.Log.Warn().Err(err).Msg("trending cache write failed")
			}
		}
	}
	return scored, nil
}

// Invalidate drops the cached ranking. Called after new reviews land.
func (s *Service) Invalidate(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, cacheKey).Err(); err != nil {
		s.Log.Warn().Err(err).Msg("trending cache invalidation failed")
	}
}

func (s *Service) compute(ctx context.Context) ([]Scored, error) {
	products, err := s.Catalog.Rated(ctx)
	if err != nil {
		return nil, err
	}
	candidates := make([]Product, 0, len(products))
	for _, p := range products {
		candidates = append(candidates, Product{
			ID:          p.ID,
			Title:       p.Title,
			ReviewCount: int(p.ReviewCount),
			RatingSum:   p.RatingSum,
		})
	}
	return Rank(candidates, s.Limit, s.MinRating), nil
}
