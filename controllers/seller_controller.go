package controllers

import (
	"net/http"
	"strings"
	"time"

	"marketplace-service/apperrors"
	"marketplace-service/middleware"
	"marketplace-service/models"

	"github.com/gin-gonic/gin"
)

type SellerController struct {
	sellers  SellerServiceAPI
	listings ListingServiceAPI
	images   ImageServiceAPI
	tokens   SellerTokenIssuer
	timeout  time.Duration
}

func NewSellerController(sellers SellerServiceAPI, listings ListingServiceAPI, images ImageServiceAPI, tokens SellerTokenIssuer, timeout time.Duration) *SellerController {
	return &SellerController{sellers: sellers, listings: listings, images: images, tokens: tokens, timeout: timeout}
}

// callerSellerID returns the authenticated seller id. A sellerId in the body
// is optional but must name the caller.
func callerSellerID(c *gin.Context, claimed string) (string, bool) {
	sellerID := middleware.GetUserID(c)
	if sellerID == "" {
		_ = c.Error(apperrors.Unauthorized("Authentication required"))
		return "", false
	}
	if claimed = strings.TrimSpace(claimed); claimed != "" && claimed != sellerID {
		_ = c.Error(apperrors.Forbidden("Seller ID does not match the authenticated seller"))
		return "", false
	}
	return sellerID, true
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type presignRequest struct {
	SellerID    string `json:"sellerId"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// Apply handles POST /seller/apply. The plaintext password appears in this
// response and nowhere else.
func (sc *SellerController) Apply(c *gin.Context) {
	var in models.SellerApplicationInput
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := withTimeout(c, sc.timeout)
	defer cancel()

	res, err := sc.sellers.Submit(ctx, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Seller request submitted successfully.",
		"requestId":   res.RequestID,
		"sellerId":    res.SellerID,
		"credentials": res.Credentials,
		"status":      res.Status,
	})
}

func (sc *SellerController) Login(c *gin.Context) {
	var in loginRequest
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := withTimeout(c, sc.timeout)
	defer cancel()

	profile, err := sc.sellers.Authenticate(ctx, strings.TrimSpace(in.Username), in.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	token, err := sc.tokens.Issue(profile.SellerID, profile.Email)
	if err != nil {
		_ = c.Error(apperrors.Internal("Failed to issue token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "seller": profile, "token": token})
}

func (sc *SellerController) Status(c *gin.Context) {
	ctx, cancel := withTimeout(c, sc.timeout)
	defer cancel()

	profile, err := sc.sellers.GetStatus(ctx, c.Param("sellerId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListRequests is the legacy GET /seller/requests listing.
func (sc *SellerController) ListRequests(c *gin.Context) {
	ctx, cancel := withTimeout(c, sc.timeout)
	defer cancel()

	reqs, err := sc.sellers.ListApplications(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

func (sc *SellerController) SubmitProduct(c *gin.Context) {
	var in models.ListingInput
	if !bindJSON(c, &in) {
		return
	}
	sellerID, ok := callerSellerID(c, in.SellerID)
	if !ok {
		return
	}
	ctx, cancel := withTimeout(c, sc.timeout)
	defer cancel()

	p, err := sc.listings.Submit(ctx, sellerID, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product submitted for review", "product": p})
}

// UpdateProduct handles PUT /seller/product/:productId. Sellers may only edit
// their own listings.
func (sc *SellerController) UpdateProduct(c *gin.Context) {
	var in models.ListingInput
	if !bindJSON(c, &in) {
		return
	}
	sellerID, ok := callerSellerID(c, in.SellerID)
	if !ok {
		return
	}
	ctx, cancel := withTimeout(c, sc.timeout)
	defer cancel()

	p, err := sc.listings.Update(ctx, c.Param("productId"), sellerID, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated and resubmitted for review", "product": p})
}

func (sc *SellerController) ListProducts(c *gin.Context) {
	ctx, cancel := withTimeout(c, sc.timeout)
	defer cancel()

	products, err := sc.listings.ListBySeller(ctx, c.Param("sellerId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (sc *SellerController) PresignImage(c *gin.Context) {
	var in presignRequest
	if !bindJSON(c, &in) {
		return
	}
	sellerID, ok := callerSellerID(c, in.SellerID)
	if !ok {
		return
	}
	ctx, cancel := withTimeout(c, sc.timeout)
	defer cancel()

	upload, err := sc.images.PresignListingImage(ctx, sellerID, in.Filename, in.ContentType)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, upload)
}
