package routes

import (
	"marketplace-service/controllers"
	"marketplace-service/middleware"

	"github.com/gin-gonic/gin"
)

// Controllers groups the handlers mounted by RegisterRoutes.
type Controllers struct {
	Seller  *controllers.SellerController
	Admin   *controllers.AdminController
	Product *controllers.ProductController
	Cart    *controllers.CartController
}

// RegisterRoutes mounts every API route. loginLimit guards POST /seller/login.
func RegisterRoutes(r *gin.Engine, ctrl Controllers, jwtSecret []byte, loginLimit gin.HandlerFunc) {
	auth := middleware.AuthMiddleware(jwtSecret)

	seller := r.Group("/seller")
	{
		seller.POST("/apply", ctrl.Seller.Apply)
		seller.POST("/login", loginLimit, ctrl.Seller.Login)
		seller.GET("/status/:sellerId", ctrl.Seller.Status)
		seller.GET("/products/:sellerId", ctrl.Seller.ListProducts)
		seller.GET("/requests", auth, middleware.AdminOnly(), ctrl.Seller.ListRequests)
	}

	// Listing writes act as the authenticated seller.
	listings := r.Group("/seller/product", auth, middleware.SellerOnly())
	{
		listings.POST("", ctrl.Seller.SubmitProduct)
		listings.POST("/images/presign", ctrl.Seller.PresignImage)
		listings.PUT("/:productId", ctrl.Seller.UpdateProduct)
	}

	admin := r.Group("/admin", auth, middleware.AdminOnly())
	{
		admin.GET("/seller-requests", ctrl.Admin.ListRequests)
		admin.PUT("/seller-requests/:id/approve", ctrl.Admin.ApproveRequest)
		admin.PUT("/seller-requests/:id/reject", ctrl.Admin.RejectRequest)
		admin.PUT("/seller-requests/:id/review", ctrl.Admin.StartReview)
		admin.GET("/seller-requests/:id/history", ctrl.Admin.RequestHistory)
		admin.GET("/products", ctrl.Admin.ListProducts)
		admin.PUT("/products/:id/approve", ctrl.Admin.ApproveProduct)
		admin.PUT("/products/:id/reject", ctrl.Admin.RejectProduct)
		admin.GET("/products/:id/history", ctrl.Admin.ProductHistory)
		admin.GET("/stats", ctrl.Admin.Stats)
	}

	products := r.Group("/products")
	{
		products.GET("", ctrl.Product.GetProducts)
		products.GET("/category/:categoryId", ctrl.Product.GetProductsByCategory)
		products.GET("/:id", ctrl.Product.GetProductByID)
	}

	cart := r.Group("/cart", auth)
	{
		cart.GET("", ctrl.Cart.GetCart)
		cart.POST("/add", ctrl.Cart.AddItem)
		cart.DELETE("/:productId", ctrl.Cart.RemoveItem)
	}
}
