package catalog

import (
	"context"
	"errors"
	"fmt"
)

type storeProvider interface {
	List(ctx context.Context, limit, offset int32) ([]Product, error)
	Count(ctx context.Context) (int64, error)
	GetBySlug(ctx context.Context, slug string) (Product, error)
	ListRated(ctx context.Context) ([]Product, error)
}

// Service orchestrates product queries and caching.
type Service struct {
	store        storeProvider
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        storeProvider
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// NewService validates configuration and constructs a catalog service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}, nil
}

// ListResult carries one page of products with the total count.
type ListResult struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
}

// List returns one page of active products, served from cache when possible.
func (s *Service) List(ctx context.Context, page, limit int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	key := fmt.Sprintf("catalog:list:%d:%d", page, limit)
	var cached ListResult
	if ok, _ := s.cache.GetJSON(ctx, key, &cached); ok {
		return cached, nil
	}
	offset := int32((page - 1) * limit)
	products, err := s.store.List(ctx, int32(limit), offset)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Products: products, Total: total}
	_ = s.cache.SetJSON(ctx, key, result)
	return result, nil
}

// Detail returns a single product by slug.
func (s *Service) Detail(ctx context.Context, slug string) (Product, error) {
	key := "catalog:detail:" + slug
	var cached Product
	if ok, _ := s.cache.GetJSON(ctx, key, &cached); ok {
		return cached, nil
	}
	product, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return Product{}, err
	}
	_ = s.cache.SetJSON(ctx, key, product)
	return product, nil
}

// Rated returns all active products carrying at least one review. The
// trending service consumes this uncached; it applies its own cache over the
// ranked output.
func (s *Service) Rated(ctx context.Context) ([]Product, error) {
	return s.store.ListRated(ctx)
}
