package controllers

import (
	"net/http"
	"time"

	"marketplace-service/middleware"
	"marketplace-service/models"

	"github.com/gin-gonic/gin"
)

type CartController struct {
	carts   CartServiceAPI
	timeout time.Duration
}

func NewCartController(carts CartServiceAPI, timeout time.Duration) *CartController {
	return &CartController{carts: carts, timeout: timeout}
}

// GetCart returns the caller's cart, or the empty view.
func (cc *CartController) GetCart(c *gin.Context) {
	ctx, cancel := withTimeout(c, cc.timeout)
	defer cancel()

	view, err := cc.carts.GetCart(ctx, middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (cc *CartController) AddItem(c *gin.Context) {
	var in models.AddToCartInput
	if !bindJSON(c, &in) {
		return
	}
	ctx, cancel := withTimeout(c, cc.timeout)
	defer cancel()

	view, err := cc.carts.AddItem(ctx, middleware.GetUserID(c), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	ctx, cancel := withTimeout(c, cc.timeout)
	defer cancel()

	view, err := cc.carts.RemoveItem(ctx, middleware.GetUserID(c), c.Param("productId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}
