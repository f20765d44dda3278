package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/smartcart/backend/internal/domain"
	"golang.org/x/sync/singleflight"
)

const catalogCacheKey = "catalog:products"

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheTTL time.Duration
}

// CatalogService serves the product catalog with a cache-aside snapshot
type CatalogService struct {
	store    domain.ProductCatalog
	cache    domain.CacheRepository
	cacheTTL time.Duration
	group    singleflight.Group
}

// NewCatalogService creates a new catalog service with dependencies
func NewCatalogService(store domain.ProductCatalog, cache domain.CacheRepository, config CatalogServiceConfig) *CatalogService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	return &CatalogService{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// ListProducts returns the full catalog ordered by product ID.
// Flow: check cache -> load store (one loader at a time) -> cache -> return
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if cached, err := s.getFromCache(ctx); err == nil {
		return cached, nil
	}

	v, err, _ := s.group.Do(catalogCacheKey, func() (interface{}, error) {
		products, err := s.store.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}

		if err := s.setInCache(ctx, products); err != nil {
			log.Printf("[CATALOG] Cache write failed: %v", err)
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]domain.Product), nil
}

// GetProduct returns a single product by ID
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidRequest
	}
	return s.store.GetByID(ctx, id)
}

// GetProductByBarcode returns a single product by barcode
func (s *CatalogService) GetProductByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.ErrInvalidRequest
	}
	return s.store.GetByBarcode(ctx, barcode)
}

// Seed loads products into an empty catalog. A non-empty catalog is left untouched.
func (s *CatalogService) Seed(ctx context.Context, products []domain.Product) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("[CATALOG] Catalog already holds %d products, skipping seed", count)
		return 0, nil
	}

	for i := range products {
		if err := s.store.Create(ctx, &products[i]); err != nil {
			return i, fmt.Errorf("failed to seed %q: %w", products[i].Name, err)
		}
	}

	if err := s.cache.Delete(ctx, catalogCacheKey); err != nil {
		log.Printf("[CATALOG] Cache invalidation failed: %v", err)
	}

	log.Printf("[CATALOG] Seeded %d products", len(products))
	return len(products), nil
}

// getFromCache retrieves the catalog snapshot from cache
func (s *CatalogService) getFromCache(ctx context.Context) ([]domain.Product, error) {
	data, err := s.cache.Get(ctx, catalogCacheKey)
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return products, nil
}

// setInCache stores the catalog snapshot in cache
func (s *CatalogService) setInCache(ctx context.Context, products []domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, catalogCacheKey, data, s.cacheTTL)
}
