package api

import (
	"click-merchant-api/internal/middleware"
	"click-merchant-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the Click callbacks and the storefront API
type Handler struct {
	merchant *services.MerchantService
}

// NewHandler creates a handler around the merchant service
func NewHandler(merchant *services.MerchantService) *Handler {
	return &Handler{merchant: merchant}
}

// SetupRoutes sets up all routes. merchantAPIKey protects the storefront
// routes when not empty.
func SetupRoutes(r *gin.Engine, h *Handler, merchantAPIKey string) {
	// Click gateway callbacks (no API key, Click signs every request)
	click := r.Group("/click")
	{
		click.POST("/prepare", h.ClickPrepare)
		click.POST("/complete", h.ClickComplete)
	}
	r.POST("/prepare", h.ClickPrepare)
	r.POST("/complete", h.ClickComplete)

	// Storefront routes
	merchant := r.Group("")
	merchant.Use(middleware.MerchantAuthMiddleware(merchantAPIKey))
	{
		merchant.POST("/transactions", h.CreateTransaction)
		merchant.POST("/products", h.CreateProduct)
		merchant.GET("/products", h.ListProducts)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "click-merchant-api",
		})
	})
}
