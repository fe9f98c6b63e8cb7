package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketplace-service/apperrors"
	"marketplace-service/catalog"
	"marketplace-service/metrics"
	"marketplace-service/models"
	"marketplace-service/repository"

	"go.uber.org/zap"
)

// ListingSource supplies seller listings to the catalog: approved ones for
// list views, any state for a lookup by id.
type ListingSource interface {
	Approved(ctx context.Context, category string) ([]models.SellerProduct, error)
	ListingByID(ctx context.Context, id string) (*models.SellerProduct, error)
}

// CatalogCache holds complete catalog views.
// Get reports the namespace version the lookup used; Set must be given that
// version so results computed across an invalidation are never served.
type CatalogCache interface {
	Get(ctx context.Context, key string) (*models.CatalogResult, int64, bool)
	Set(ctx context.Context, version int64, key string, result *models.CatalogResult)
}

// catalogSource is one independently failing product store.
type catalogSource interface {
	Name() string
	All(ctx context.Context) ([]models.CatalogItem, error)
	// ByCategory receives the resolved category, or ok=false with the raw key.
	ByCategory(ctx context.Context, c catalog.Category, ok bool, rawKey string) ([]models.CatalogItem, error)
	ByID(ctx context.Context, id string) (*models.CatalogItem, error)
}

type firstPartySource struct {
	repo       repository.ProductRepo
	categories *catalog.CategoryMapping
}

func (s firstPartySource) Name() string { return models.SourceFirstParty }

func (s firstPartySource) project(products []models.Product) []models.CatalogItem {
	items := make([]models.CatalogItem, 0, len(products))
	for i := range products {
		name := ""
		if c, ok := s.categories.ByObjectID(products[i].CategoryID); ok {
			name = c.Name
		}
		items = append(items, models.FromProduct(&products[i], name))
	}
	return items
}

func (s firstPartySource) All(ctx context.Context) ([]models.CatalogItem, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.project(products), nil
}

// First-party products carry the native object id, so an unmapped key is
// still tried verbatim.
func (s firstPartySource) ByCategory(ctx context.Context, c catalog.Category, ok bool, rawKey string) ([]models.CatalogItem, error) {
	key := rawKey
	if ok {
		key = c.ObjectID
	}
	products, err := s.repo.FindByCategoryID(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.project(products), nil
}

func (s firstPartySource) ByID(ctx context.Context, id string) (*models.CatalogItem, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items := s.project([]models.Product{*p})
	return &items[0], nil
}

type sellerSource struct {
	listings ListingSource
}

func (s sellerSource) Name() string { return models.SourceSeller }

func projectListings(listings []models.SellerProduct) []models.CatalogItem {
	items := make([]models.CatalogItem, 0, len(listings))
	for i := range listings {
		items = append(items, models.FromSellerProduct(&listings[i]))
	}
	return items
}

func (s sellerSource) All(ctx context.Context) ([]models.CatalogItem, error) {
	listings, err := s.listings.Approved(ctx, "")
	if err != nil {
		return nil, err
	}
	return projectListings(listings), nil
}

// Seller listings are stored by canonical name; an unresolvable key cannot
// match any of them.
func (s sellerSource) ByCategory(ctx context.Context, c catalog.Category, ok bool, _ string) ([]models.CatalogItem, error) {
	if !ok {
		return []models.CatalogItem{}, nil
	}
	listings, err := s.listings.Approved(ctx, c.Name)
	if err != nil {
		return nil, err
	}
	return projectListings(listings), nil
}

func (s sellerSource) ByID(ctx context.Context, id string) (*models.CatalogItem, error) {
	p, err := s.listings.ListingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item := models.FromSellerProduct(p)
	return &item, nil
}

type CatalogService struct {
	sources       []catalogSource
	categories    *catalog.CategoryMapping
	cache         CatalogCache
	sourceTimeout time.Duration
	logger        *zap.Logger
}

// NewCatalogService merges first-party products and approved listings, in
// that order. cache may be nil.
func NewCatalogService(
	products repository.ProductRepo,
	listings ListingSource,
	categories *catalog.CategoryMapping,
	cache CatalogCache,
	sourceTimeout time.Duration,
	logger *zap.Logger,
) *CatalogService {
	if sourceTimeout <= 0 {
		sourceTimeout = 5 * time.Second
	}
	return &CatalogService{
		sources: []catalogSource{
			firstPartySource{repo: products, categories: categories},
			sellerSource{listings: listings},
		},
		categories:    categories,
		cache:         cache,
		sourceTimeout: sourceTimeout,
		logger:        logger,
	}
}

func (s *CatalogService) GetAll(ctx context.Context) (*models.CatalogResult, error) {
	return s.cached(ctx, "all", func(ctx context.Context, src catalogSource) ([]models.CatalogItem, error) {
		return src.All(ctx)
	})
}

// GetByCategory accepts an object id, a category name or a legacy id.
func (s *CatalogService) GetByCategory(ctx context.Context, key string) (*models.CatalogResult, error) {
	c, ok := s.categories.Resolve(key)
	cacheKey := "category:raw:" + key
	if ok {
		cacheKey = "category:" + c.ObjectID
	}
	return s.cached(ctx, cacheKey, func(ctx context.Context, src catalogSource) ([]models.CatalogItem, error) {
		return src.ByCategory(ctx, c, ok, key)
	})
}

// GetByID tries each source in order. Missing or malformed ids fall through
// to the next source; only a failure of every source is a server error.
func (s *CatalogService) GetByID(ctx context.Context, id string) (*models.CatalogItem, error) {
	var failures []error
	for _, src := range s.sources {
		item, err := s.withTimeout(ctx, func(ctx context.Context) (*models.CatalogItem, error) {
			return src.ByID(ctx, id)
		})
		if err == nil {
			return item, nil
		}
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			continue
		}
		s.sourceFailed(src.Name(), "get_by_id", err)
		failures = append(failures, fmt.Errorf("%s: %w", src.Name(), err))
	}
	if len(failures) == len(s.sources) {
		return nil, apperrors.Internal("Failed to load product", errors.Join(failures...))
	}
	return nil, apperrors.NotFound("Product not found")
}

type sourceQuery func(ctx context.Context, src catalogSource) ([]models.CatalogItem, error)

func (s *CatalogService) cached(ctx context.Context, key string, query sourceQuery) (*models.CatalogResult, error) {
	var version int64
	if s.cache != nil {
		res, v, ok := s.cache.Get(ctx, key)
		if ok {
			metrics.CatalogCacheLookup(true)
			return res, nil
		}
		metrics.CatalogCacheLookup(false)
		version = v
	}

	res, err := s.merge(ctx, key, query)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && res.Complete() {
		s.cache.Set(ctx, version, key, res)
	}
	return res, nil
}

// merge queries every source concurrently, each under its own deadline, and
// concatenates the answers in source order. A failed source becomes a
// warning unless every source failed.
func (s *CatalogService) merge(ctx context.Context, op string, query sourceQuery) (*models.CatalogResult, error) {
	type answer struct {
		items []models.CatalogItem
		err   error
	}
	answers := make([]answer, len(s.sources))

	var wg sync.WaitGroup
	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src catalogSource) {
			defer wg.Done()
			srcCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
			defer cancel()
			items, err := query(srcCtx, src)
			answers[i] = answer{items: items, err: err}
		}(i, src)
	}
	wg.Wait()

	res := &models.CatalogResult{Items: []models.CatalogItem{}}
	var failures []error
	for i, a := range answers {
		name := s.sources[i].Name()
		if a.err != nil {
			s.sourceFailed(name, op, a.err)
			failures = append(failures, fmt.Errorf("%s: %w", name, a.err))
			res.Warnings = append(res.Warnings, name+" products are temporarily unavailable")
			continue
		}
		res.Items = append(res.Items, a.items...)
	}
	if len(failures) == len(s.sources) {
		return nil, apperrors.Internal("Failed to load products", errors.Join(failures...))
	}
	return res, nil
}

func (s *CatalogService) withTimeout(ctx context.Context, fn func(context.Context) (*models.CatalogItem, error)) (*models.CatalogItem, error) {
	srcCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
	defer cancel()
	return fn(srcCtx)
}

func (s *CatalogService) sourceFailed(source, op string, err error) {
	metrics.CatalogSourceFailed(source)
	s.logger.Warn("Catalog source failed",
		zap.String("source", source),
		zap.String("op", op),
		zap.Error(err),
	)
}
