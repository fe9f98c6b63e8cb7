package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"marketplace-service/models"
	"marketplace-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStoreDown = errors.New("store unavailable")

type memSellerRepo struct {
	mu        sync.Mutex
	docs      map[string]*models.SellerRequest
	createErr []error // consumed one per Create call
	failAll   error
}

func newMemSellerRepo() *memSellerRepo {
	return &memSellerRepo{docs: map[string]*models.SellerRequest{}}
}

func (r *memSellerRepo) Create(_ context.Context, req *models.SellerRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.createErr) > 0 {
		err := r.createErr[0]
		r.createErr = r.createErr[1:]
		if err != nil {
			return err
		}
	}
	for _, d := range r.docs {
		if d.SellerCredentials.Username == req.SellerCredentials.Username || d.SellerCredentials.SellerID == req.SellerCredentials.SellerID {
			return repository.ErrDuplicateKey
		}
	}
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	cp := *req
	r.docs[req.ID.Hex()] = &cp
	return nil
}

func (r *memSellerRepo) find(match func(*models.SellerRequest) bool) (*models.SellerRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return nil, r.failAll
	}
	for _, d := range r.docs {
		if match(d) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memSellerRepo) FindByID(_ context.Context, id string) (*models.SellerRequest, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	return r.find(func(d *models.SellerRequest) bool { return d.ID.Hex() == id })
}

func (r *memSellerRepo) FindByUsername(_ context.Context, username string) (*models.SellerRequest, error) {
	return r.find(func(d *models.SellerRequest) bool { return d.SellerCredentials.Username == username })
}

func (r *memSellerRepo) FindBySellerID(_ context.Context, sellerID string) (*models.SellerRequest, error) {
	return r.find(func(d *models.SellerRequest) bool { return d.SellerCredentials.SellerID == sellerID })
}

func (r *memSellerRepo) FindAll(_ context.Context) ([]models.SellerRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.SellerRequest{}
	for _, d := range r.docs {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memSellerRepo) TransitionStatus(_ context.Context, id string, change repository.StatusChange) (*models.SellerRequest, models.ModerationStatus, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, "", repository.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	from := d.Status
	allowed := false
	for _, s := range change.From {
		allowed = allowed || s == from
	}
	if !allowed {
		cp := *d
		return &cp, from, repository.ErrStatusConflict
	}
	at := change.At
	d.Status = change.To
	d.ReviewedBy = change.Reviewer
	d.ReviewedAt = &at
	d.LastStatusUpdate = at
	if change.To == models.StatusRejected {
		d.RejectionReason = change.Reason
	}
	cp := *d
	return &cp, from, nil
}

func (r *memSellerRepo) CountByStatus(_ context.Context) (map[models.ModerationStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[models.ModerationStatus]int64{}
	for _, d := range r.docs {
		out[d.Status]++
	}
	return out, nil
}

func (r *memSellerRepo) EnsureIndexes(context.Context) error { return nil }

// seed stores an application in the given status and returns it.
func (r *memSellerRepo) seed(sellerID string, status models.ModerationStatus) *models.SellerRequest {
	req := &models.SellerRequest{
		ID:           primitive.NewObjectID(),
		BusinessName: "Acme Traders",
		Status:       status,
		CreatedAt:    time.Now(),
		SellerCredentials: models.SellerCredentials{
			Username: "SELL" + sellerID,
			SellerID: sellerID,
		},
	}
	r.mu.Lock()
	r.docs[req.ID.Hex()] = req
	r.mu.Unlock()
	return req
}

type memListingRepo struct {
	mu      sync.Mutex
	docs    map[string]*models.SellerProduct
	order   []string
	findErr error
	// runs under the lock against the stored doc just before a replace
	beforeReplace func(stored *models.SellerProduct)
}

func newMemListingRepo() *memListingRepo {
	return &memListingRepo{docs: map[string]*models.SellerProduct{}}
}

func (r *memListingRepo) Create(_ context.Context, p *models.SellerProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	r.docs[p.ID.Hex()] = &cp
	r.order = append(r.order, p.ID.Hex())
	return nil
}

func (r *memListingRepo) FindByID(_ context.Context, id string) (*models.SellerProduct, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	d, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// Find returns matches newest first, mirroring the Mongo sort.
func (r *memListingRepo) Find(_ context.Context, f repository.ListingFilter) ([]models.SellerProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := []models.SellerProduct{}
	for i := len(r.order) - 1; i >= 0; i-- {
		d := r.docs[r.order[i]]
		if f.SellerID != "" && d.SellerID != f.SellerID {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.Category != "" && d.Category != f.Category {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *memListingRepo) ReplaceListing(_ context.Context, p *models.SellerProduct) (models.ModerationStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[p.ID.Hex()]
	if !ok || d.SellerID != p.SellerID {
		return "", repository.ErrNotFound
	}
	if r.beforeReplace != nil {
		r.beforeReplace(d)
	}
	previous := d.Status
	cp := *p
	r.docs[p.ID.Hex()] = &cp
	return previous, nil
}

func (r *memListingRepo) TransitionStatus(_ context.Context, id string, change repository.StatusChange) (*models.SellerProduct, models.ModerationStatus, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, "", repository.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	from := d.Status
	allowed := false
	for _, s := range change.From {
		allowed = allowed || s == from
	}
	if !allowed {
		cp := *d
		return &cp, from, repository.ErrStatusConflict
	}
	at := change.At
	d.Status = change.To
	d.ReviewedBy = change.Reviewer
	d.ReviewedAt = &at
	switch change.To {
	case models.StatusApproved:
		d.ApprovedAt = &at
	case models.StatusRejected:
		d.AdminComments = change.Reason
	}
	cp := *d
	return &cp, from, nil
}

func (r *memListingRepo) CountByStatus(_ context.Context) (map[models.ModerationStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[models.ModerationStatus]int64{}
	for _, d := range r.docs {
		out[d.Status]++
	}
	return out, nil
}

func (r *memListingRepo) EnsureIndexes(context.Context) error { return nil }

func (r *memListingRepo) seed(p models.SellerProduct) *models.SellerProduct {
	_ = r.Create(context.Background(), &p)
	return &p
}

type memProductRepo struct {
	products []models.Product
	err      error
	delay    time.Duration
}

func (r *memProductRepo) wait(ctx context.Context) error {
	if r.delay == 0 {
		return r.err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(r.delay):
		return r.err
	}
}

func (r *memProductRepo) FindAll(ctx context.Context) ([]models.Product, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return append([]models.Product{}, r.products...), nil
}

func (r *memProductRepo) FindByCategoryID(ctx context.Context, categoryID string) ([]models.Product, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	out := []models.Product{}
	for _, p := range r.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProductRepo) FindByID(ctx context.Context, id string) (*models.Product, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	for _, p := range r.products {
		if p.ID.Hex() == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memCartRepo struct {
	carts   map[string]models.Cart
	loadErr error
	saveErr error
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: map[string]models.Cart{}}
}

func (r *memCartRepo) FindByUserID(_ context.Context, userID string) (*models.Cart, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	c, ok := r.carts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.Items = append([]models.CartItem{}, c.Items...)
	return &c, nil
}

func (r *memCartRepo) Save(_ context.Context, cart *models.Cart) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	c := *cart
	c.Items = append([]models.CartItem{}, cart.Items...)
	r.carts[cart.UserID] = c
	return nil
}

func (r *memCartRepo) EnsureIndexes(context.Context) error { return nil }

type memAudit struct {
	mu      sync.Mutex
	entries []models.ModerationAudit
}

func (a *memAudit) Append(_ context.Context, e *models.ModerationAudit) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, *e)
	return nil
}

func (a *memAudit) ListByEntity(_ context.Context, entityType, entityID string) ([]models.ModerationAudit, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []models.ModerationAudit{}
	for _, e := range a.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ModerationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e models.ModerationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

type memCatalogCache struct {
	entries map[string]*models.CatalogResult
}

func (c *memCatalogCache) Get(_ context.Context, key string) (*models.CatalogResult, int64, bool) {
	r, ok := c.entries[key]
	return r, 1, ok
}

func (c *memCatalogCache) Set(_ context.Context, _ int64, key string, r *models.CatalogResult) {
	c.entries[key] = r
}
