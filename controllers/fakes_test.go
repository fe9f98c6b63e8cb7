package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace-service/apperrors"
	"marketplace-service/models"
	"marketplace-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSellerService struct {
	submitFn       func(models.SellerApplicationInput) (*models.SubmitResult, error)
	authFn         func(username, password string) (*models.SellerProfile, error)
	statusFn       func(sellerID string) (*models.SellerProfile, error)
	transitionFn   func(id string, t models.Transition) (*models.SellerRequest, error)
	requests       []models.SellerRequest
	lastTransition models.Transition
}

func (f *fakeSellerService) Submit(_ context.Context, in models.SellerApplicationInput) (*models.SubmitResult, error) {
	return f.submitFn(in)
}

func (f *fakeSellerService) Authenticate(_ context.Context, username, password string) (*models.SellerProfile, error) {
	return f.authFn(username, password)
}

func (f *fakeSellerService) GetStatus(_ context.Context, sellerID string) (*models.SellerProfile, error) {
	return f.statusFn(sellerID)
}

func (f *fakeSellerService) ListApplications(context.Context) ([]models.SellerRequest, error) {
	return f.requests, nil
}

func (f *fakeSellerService) Transition(_ context.Context, id string, t models.Transition) (*models.SellerRequest, error) {
	f.lastTransition = t
	return f.transitionFn(id, t)
}

func (f *fakeSellerService) History(context.Context, string) ([]models.ModerationAudit, error) {
	return []models.ModerationAudit{{Action: "approve", ToStatus: "approved"}}, nil
}

type fakeListingService struct {
	submitFn   func(sellerID string, in models.ListingInput) (*models.SellerProduct, error)
	updateFn   func(productID, sellerID string, in models.ListingInput) (*models.SellerProduct, error)
	reviewFn   func(productID string, t models.Transition) (*models.SellerProduct, error)
	lastStatus string
	lastReview models.Transition
}

func (f *fakeListingService) Submit(_ context.Context, sellerID string, in models.ListingInput) (*models.SellerProduct, error) {
	return f.submitFn(sellerID, in)
}

func (f *fakeListingService) Update(_ context.Context, productID, sellerID string, in models.ListingInput) (*models.SellerProduct, error) {
	return f.updateFn(productID, sellerID, in)
}

func (f *fakeListingService) Review(_ context.Context, productID string, t models.Transition) (*models.SellerProduct, error) {
	f.lastReview = t
	return f.reviewFn(productID, t)
}

func (f *fakeListingService) ListBySeller(_ context.Context, sellerID string) ([]models.SellerProduct, error) {
	return []models.SellerProduct{{Name: "Earbuds", SellerID: sellerID}}, nil
}

func (f *fakeListingService) ListByStatus(_ context.Context, status string) ([]models.SellerProduct, error) {
	f.lastStatus = status
	if status == "archived" {
		return nil, apperrors.Validation("Unknown status filter", "status")
	}
	return []models.SellerProduct{}, nil
}

func (f *fakeListingService) History(context.Context, string) ([]models.ModerationAudit, error) {
	return []models.ModerationAudit{}, nil
}

type fakeImageService struct {
	upload     *services.ImageUpload
	err        error
	lastSeller string
}

func (f *fakeImageService) PresignListingImage(_ context.Context, sellerID, _, _ string) (*services.ImageUpload, error) {
	f.lastSeller = sellerID
	return f.upload, f.err
}

type fakeStatsService struct{}

func (fakeStatsService) Stats(context.Context) (*models.Stats, error) {
	return &models.Stats{TotalSellers: 3, Pending: 2}, nil
}

// newRouter mounts apperrors.ErrorMiddleware so handler errors render as in production.
func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware(false))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}
