package apperrors_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace-service/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIs_MatchesOnKind(t *testing.T) {
	err := apperrors.NotFound("Seller request not found")
	wrapped := fmt.Errorf("lookup: %w", err)

	assert.True(t, errors.Is(wrapped, apperrors.ErrNotFound))
	assert.False(t, errors.Is(wrapped, apperrors.ErrConflict))
}

func TestFrom_UnknownErrorBecomesInternal(t *testing.T) {
	appErr := apperrors.From(errors.New("connection reset"))

	assert.Equal(t, apperrors.KindInternal, appErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.EqualError(t, appErr.Unwrap(), "connection reset")
}

func TestConflict_UsesBadRequestStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, apperrors.Conflict("Request already approved").Code)
}

func runMiddleware(t *testing.T, exposeDetails bool, err error) (int, map[string]interface{}) {
	t.Helper()
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware(exposeDetails))
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(err)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func TestErrorMiddleware_RendersValidationFields(t *testing.T) {
	code, body := runMiddleware(t, false, apperrors.Validation("Missing required fields", "email", "gst"))

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing required fields", body["error"])
	assert.Equal(t, []interface{}{"email", "gst"}, body["fields"])
}

func TestErrorMiddleware_HidesDetailsUnlessEnabled(t *testing.T) {
	cause := apperrors.Internal("Failed to load cart", errors.New("mongo: timeout"))

	code, body := runMiddleware(t, false, cause)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.NotContains(t, body, "details")

	_, body = runMiddleware(t, true, cause)
	assert.Equal(t, "mongo: timeout", body["details"])
}
