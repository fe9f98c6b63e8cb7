package controllers

import (
	"net/http"
	"time"

	"marketplace-service/middleware"
	"marketplace-service/models"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	sellers  SellerServiceAPI
	listings ListingServiceAPI
	stats    StatsServiceAPI
	timeout  time.Duration
}

func NewAdminController(sellers SellerServiceAPI, listings ListingServiceAPI, stats StatsServiceAPI, timeout time.Duration) *AdminController {
	return &AdminController{sellers: sellers, listings: listings, stats: stats, timeout: timeout}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// reason reads an optional {"reason": ...} body. An empty body is fine.
func reason(c *gin.Context) string {
	var body reasonRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&body)
	}
	return body.Reason
}

func (ac *AdminController) ListRequests(c *gin.Context) {
	ctx, cancel := withTimeout(c, ac.timeout)
	defer cancel()

	reqs, err := ac.sellers.ListApplications(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

func (ac *AdminController) ApproveRequest(c *gin.Context) {
	ac.transitionRequest(c, models.ActionApprove, "Seller request approved successfully")
}

func (ac *AdminController) RejectRequest(c *gin.Context) {
	ac.transitionRequest(c, models.ActionReject, "Seller request rejected successfully")
}

func (ac *AdminController) StartReview(c *gin.Context) {
	ac.transitionRequest(c, models.ActionStartReview, "Seller request moved to review")
}

func (ac *AdminController) transitionRequest(c *gin.Context, action models.ModerationAction, message string) {
	t := models.Transition{Action: action, Reviewer: middleware.Reviewer(c)}
	if action == models.ActionReject {
		t.Reason = reason(c)
	}
	ctx, cancel := withTimeout(c, ac.timeout)
	defer cancel()

	req, err := ac.sellers.Transition(ctx, c.Param("id"), t)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "request": req})
}

func (ac *AdminController) RequestHistory(c *gin.Context) {
	ctx, cancel := withTimeout(c, ac.timeout)
	defer cancel()

	entries, err := ac.sellers.History(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// ListProducts handles GET /admin/products with an optional ?status= filter.
func (ac *AdminController) ListProducts(c *gin.Context) {
	ctx, cancel := withTimeout(c, ac.timeout)
	defer cancel()

	products, err := ac.listings.ListByStatus(ctx, c.Query("status"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (ac *AdminController) ApproveProduct(c *gin.Context) {
	ac.reviewProduct(c, models.ActionApprove, "Product approved successfully")
}

func (ac *AdminController) RejectProduct(c *gin.Context) {
	ac.reviewProduct(c, models.ActionReject, "Product rejected successfully")
}

func (ac *AdminController) reviewProduct(c *gin.Context, action models.ModerationAction, message string) {
	t := models.Transition{Action: action, Reviewer: middleware.Reviewer(c)}
	if action == models.ActionReject {
		t.Reason = reason(c)
	}
	ctx, cancel := withTimeout(c, ac.timeout)
	defer cancel()

	p, err := ac.listings.Review(ctx, c.Param("id"), t)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "product": p})
}

func (ac *AdminController) ProductHistory(c *gin.Context) {
	ctx, cancel := withTimeout(c, ac.timeout)
	defer cancel()

	entries, err := ac.listings.History(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (ac *AdminController) Stats(c *gin.Context) {
	ctx, cancel := withTimeout(c, ac.timeout)
	defer cancel()

	stats, err := ac.stats.Stats(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
