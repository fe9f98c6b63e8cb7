package controllers

import (
	"net/http"
	"strings"
	"time"

	"marketplace-service/models"

	"github.com/gin-gonic/gin"
)

// CatalogWarningsHeader lists catalog sources missing from a degraded response.
const CatalogWarningsHeader = "X-Catalog-Warnings"

type ProductController struct {
	catalog CatalogServiceAPI
	timeout time.Duration
}

func NewProductController(catalog CatalogServiceAPI, timeout time.Duration) *ProductController {
	return &ProductController{catalog: catalog, timeout: timeout}
}

func (pc *ProductController) GetProducts(c *gin.Context) {
	ctx, cancel := withTimeout(c, pc.timeout)
	defer cancel()

	res, err := pc.catalog.GetAll(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}
	writeCatalog(c, res)
}

func (pc *ProductController) GetProductsByCategory(c *gin.Context) {
	ctx, cancel := withTimeout(c, pc.timeout)
	defer cancel()

	res, err := pc.catalog.GetByCategory(ctx, c.Param("categoryId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	writeCatalog(c, res)
}

func (pc *ProductController) GetProductByID(c *gin.Context) {
	ctx, cancel := withTimeout(c, pc.timeout)
	defer cancel()

	item, err := pc.catalog.GetByID(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// writeCatalog keeps the body a plain array; partial results are flagged in a header.
func writeCatalog(c *gin.Context, res *models.CatalogResult) {
	if !res.Complete() {
		c.Header(CatalogWarningsHeader, strings.Join(res.Warnings, "; "))
	}
	c.JSON(http.StatusOK, res.Items)
}
