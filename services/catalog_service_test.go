package services

import (
	"context"
	"testing"
	"time"

	"marketplace-service/apperrors"
	"marketplace-service/cache"
	"marketplace-service/catalog"
	"marketplace-service/models"
	"marketplace-service/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const electronicsOID = "68a217ef46a3642ac769d992"

type fakeListings struct {
	items []models.SellerProduct
	err   error
	// runs inside Approved, after the store has been read
	afterRead func()
}

func (f *fakeListings) Approved(_ context.Context, category string) ([]models.SellerProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.afterRead != nil {
		defer f.afterRead()
	}
	out := []models.SellerProduct{}
	for _, p := range f.items {
		if p.Status != models.StatusApproved {
			continue
		}
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeListings) ListingByID(_ context.Context, id string) (*models.SellerProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.items {
		if p.ID.Hex() == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func catalogFixture(t *testing.T) (*memProductRepo, *fakeListings, *catalog.CategoryMapping) {
	t.Helper()
	categories, err := catalog.LoadDefault()
	require.NoError(t, err)

	products := &memProductRepo{products: []models.Product{
		{ID: primitive.NewObjectID(), Name: "Laptop", Price: 54999, CategoryID: electronicsOID},
		{ID: primitive.NewObjectID(), Name: "Basmati Rice", Price: 120, CategoryID: "68a21c83d7f0c3f3ef738b09"},
	}}
	listings := &fakeListings{items: []models.SellerProduct{
		{ID: primitive.NewObjectID(), Name: "Wireless Earbuds", Price: 999, Category: "Electronics", CategoryID: "2", SellerID: "DMT100000AAAA", Status: models.StatusApproved},
	}}
	return products, listings, categories
}

func TestCatalogService_GetAll_FirstPartyThenSeller(t *testing.T) {
	products, listings, categories := catalogFixture(t)
	svc := NewCatalogService(products, listings, categories, nil, time.Second, zap.NewNop())

	res, err := svc.GetAll(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Items, 3)
	assert.True(t, res.Complete())
	assert.Equal(t, models.SourceFirstParty, res.Items[0].Source)
	assert.Equal(t, "Electronics", res.Items[0].Category)
	assert.Equal(t, models.SourceFirstParty, res.Items[1].Source)
	assert.Equal(t, models.SourceSeller, res.Items[2].Source)
	assert.Equal(t, "DMT100000AAAA", res.Items[2].SellerID)
}

func TestCatalogService_GetAll_DegradesWhenOneSourceFails(t *testing.T) {
	products, listings, categories := catalogFixture(t)
	listings.err = errStoreDown
	svc := NewCatalogService(products, listings, categories, nil, time.Second, zap.NewNop())

	res, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.False(t, res.Complete())
	assert.Equal(t, []string{"seller products are temporarily unavailable"}, res.Warnings)
}

func TestCatalogService_GetAll_FailsWhenEverySourceFails(t *testing.T) {
	products, listings, categories := catalogFixture(t)
	products.err = errStoreDown
	listings.err = errStoreDown
	svc := NewCatalogService(products, listings, categories, nil, time.Second, zap.NewNop())

	_, err := svc.GetAll(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}

func TestCatalogService_SlowSourceTimesOut(t *testing.T) {
	products, listings, categories := catalogFixture(t)
	products.delay = time.Second
	svc := NewCatalogService(products, listings, categories, nil, 20*time.Millisecond, zap.NewNop())

	start := time.Now()
	res, err := svc.GetAll(context.Background())
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.Len(t, res.Items, 1)
	assert.Equal(t, models.SourceSeller, res.Items[0].Source)
	assert.Equal(t, []string{"first_party products are temporarily unavailable"}, res.Warnings)
}

func TestCatalogService_GetByCategory_AcceptsEveryKeyScheme(t *testing.T) {
	products, listings, categories := catalogFixture(t)
	svc := NewCatalogService(products, listings, categories, nil, time.Second, zap.NewNop())

	for _, key := range []string{electronicsOID, "2", "Electronics", "electronics"} {
		res, err := svc.GetByCategory(context.Background(), key)
		require.NoError(t, err, key)
		require.Len(t, res.Items, 2, key)
		assert.Equal(t, "Laptop", res.Items[0].Name, key)
		assert.Equal(t, "Wireless Earbuds", res.Items[1].Name, key)
	}

	res, err := svc.GetByCategory(context.Background(), "Spaceships")
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestCatalogService_GetByCategory_UnmappedKeyMatchesFirstPartyOnly(t *testing.T) {
	products, listings, categories := catalogFixture(t)
	const unmapped = "68b0000000000000000000aa"
	products.products = append(products.products,
		models.Product{ID: primitive.NewObjectID(), Name: "Garden Hose", Price: 650, CategoryID: unmapped})
	listings.items = append(listings.items,
		models.SellerProduct{ID: primitive.NewObjectID(), Name: "Hose Reel", Category: unmapped, SellerID: "DMT100000AAAA", Status: models.StatusApproved})
	svc := NewCatalogService(products, listings, categories, nil, time.Second, zap.NewNop())

	res, err := svc.GetByCategory(context.Background(), unmapped)
	require.NoError(t, err)
	assert.True(t, res.Complete())
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Garden Hose", res.Items[0].Name)
	assert.Equal(t, models.SourceFirstParty, res.Items[0].Source)
	assert.Empty(t, res.Items[0].Category)
}

func TestCatalogService_GetByID(t *testing.T) {
	products, listings, categories := catalogFixture(t)
	svc := NewCatalogService(products, listings, categories, nil, time.Second, zap.NewNop())
	ctx := context.Background()

	item, err := svc.GetByID(ctx, products.products[0].ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.SourceFirstParty, item.Source)

	item, err = svc.GetByID(ctx, listings.items[0].ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.SourceSeller, item.Source)
	assert.Equal(t, string(models.StatusApproved), item.Status)

	pending := models.SellerProduct{ID: primitive.NewObjectID(), Name: "Desk Lamp", Category: "Electronics", SellerID: "DMT100000AAAA", Status: models.StatusPending}
	listings.items = append(listings.items, pending)
	item, err = svc.GetByID(ctx, pending.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", item.Name)
	assert.Equal(t, string(models.StatusPending), item.Status)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	for _, it := range all.Items {
		assert.NotEqual(t, pending.ID.Hex(), it.ID)
	}

	_, err = svc.GetByID(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalogService_GetByID_SourceFailures(t *testing.T) {
	products, listings, categories := catalogFixture(t)
	products.err = errStoreDown
	svc := NewCatalogService(products, listings, categories, nil, time.Second, zap.NewNop())
	ctx := context.Background()

	item, err := svc.GetByID(ctx, listings.items[0].ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Wireless Earbuds", item.Name)

	_, err = svc.GetByID(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	listings.err = errStoreDown
	_, err = svc.GetByID(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}

func TestCatalogService_CachesOnlyCompleteResults(t *testing.T) {
	products, listings, categories := catalogFixture(t)
	memCache := &memCatalogCache{entries: map[string]*models.CatalogResult{}}
	svc := NewCatalogService(products, listings, categories, memCache, time.Second, zap.NewNop())
	ctx := context.Background()

	listings.err = errStoreDown
	_, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.NotContains(t, memCache.entries, "all")

	listings.err = nil
	_, err = svc.GetAll(ctx)
	require.NoError(t, err)
	require.Contains(t, memCache.entries, "all")

	_, err = svc.GetByCategory(ctx, "2")
	require.NoError(t, err)
	assert.Contains(t, memCache.entries, "category:"+electronicsOID)

	// served from cache even though the stores are now down
	products.err = errStoreDown
	listings.err = errStoreDown
	res, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
}

func TestCatalogService_ApprovalDuringMissIsNotMaskedByCache(t *testing.T) {
	products, listings, categories := catalogFixture(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	catalogCache := cache.NewCatalogCache(client, time.Minute, zap.NewNop())
	svc := NewCatalogService(products, listings, categories, catalogCache, time.Second, zap.NewNop())
	ctx := context.Background()

	fresh := models.SellerProduct{ID: primitive.NewObjectID(), Name: "Smart Watch", Category: "Electronics", SellerID: "DMT100000AAAA", Status: models.StatusPending}
	listings.items = append(listings.items, fresh)
	listings.afterRead = func() {
		listings.afterRead = nil
		listings.items[len(listings.items)-1].Status = models.StatusApproved
		require.NoError(t, catalogCache.Invalidate(ctx))
	}

	stale, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stale.Items, 3)

	res, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, res.Items, 4)
	assert.Equal(t, "Smart Watch", res.Items[3].Name)
}
