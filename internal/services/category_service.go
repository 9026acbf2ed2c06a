package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/repositories"
)

// CategoryResolver maps a category slug to its identifier. An unknown slug yields an
// error wrapping common.ErrNotFound.
type CategoryResolver interface {
	ResolveSlug(ctx context.Context, slug string) (string, error)
}

// CategoryService resolves slugs through the repository, optionally behind a Redis cache.
type CategoryService struct {
	repo  repositories.CategoryRepository
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewCategoryService creates a CategoryService. c may be nil to disable caching.
func NewCategoryService(repo repositories.CategoryRepository, c *cache.Cache, ttl time.Duration, log *zap.Logger) *CategoryService {
	return &CategoryService{repo: repo, cache: c, ttl: ttl, log: log}
}

// ResolveSlug returns the identifier of the category with exactly this slug.
func (s *CategoryService) ResolveSlug(ctx context.Context, slug string) (string, error) {
	if s.cache == nil {
		return s.load(ctx, slug)
	}
	b, err := s.cache.GetOrLoad(ctx, "category:slug:"+slug, s.ttl, func(ctx context.Context) ([]byte, error) {
		id, err := s.load(ctx, slug)
		if err != nil {
			return nil, err
		}
		return []byte(id), nil
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *CategoryService) load(ctx context.Context, slug string) (string, error) {
	category, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	return category.ID, nil
}
