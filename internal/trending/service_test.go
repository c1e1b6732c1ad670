package trending_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/technest-ghazi/backend-bnpl/internal/catalog"
	"github.com/technest-ghazi/backend-bnpl/internal/trending"
)

type stubCatalog struct {
	products []catalog.Product
	calls    int
}

func (s *stubCatalog) Rated(context.Context) ([]catalog.Product, error) {
	s.calls++
	return s.products, nil
}

func newRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestTrendingComputesAndCaches(t *testing.T) {
	cat := &stubCatalog{products: []catalog.Product{
		{ID: "a", Title: "Good", ReviewCount: 4, RatingSum: 18},
		{ID: "b", Title: "Mediocre", ReviewCount: 10, RatingSum: 30},
	}}
	svc := trending.NewService(cat, newRedis(t), time.Minute, 12, 3.5, zerolog.Nop())

	first, err := svc.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, "a", first[0].ID)
	require.InDelta(t, 4.5, first[0].AverageRating, 1e-9)

	second, err := svc.Trending(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, cat.calls, "second call must serve from cache")
}

func TestTrendingInvalidateForcesRecompute(t *testing.T) {
	cat := &stubCatalog{products: []catalog.Product{
		{ID: "a", Title: "Good", ReviewCount: 2, RatingSum: 9},
	}}
	svc := trending.NewService(cat, newRedis(t), time.Minute, 12, 3.5, zerolog.Nop())

	_, err := svc.Trending(context.Background())
	require.NoError(t, err)
	svc.Invalidate(context.Background())
	_, err = svc.Trending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, cat.calls)
}

func TestTrendingWithoutRedis(t *testing.T) {
	cat := &stubCatalog{products: []catalog.Product{
		{ID: "a", Title: "Good", ReviewCount: 1, RatingSum: 5},
	}}
	svc := trending.NewService(cat, nil, time.Minute, 12, 3.5, zerolog.Nop())

	scored, err := svc.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, scored, 1)

	_, err = svc.Trending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, cat.calls, "no cache means every call recomputes")
}
