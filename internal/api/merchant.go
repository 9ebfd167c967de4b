package api

import (
	"click-merchant-api/internal/models"
	"click-merchant-api/internal/response"
	"click-merchant-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// CreateTransaction creates an unpaid transaction for a product
func (h *Handler) CreateTransaction(c *gin.Context) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, response.InvalidInput("Invalid request format: "+err.Error()))
		return
	}

	resp, err := h.merchant.CreateTransaction(c.Request.Context(), &req)
	if err != nil {
		logging.Errorf("Failed to create transaction for product %d: %v", req.ProductID, err)
		response.ErrorJSON(c, err)
		return
	}

	response.SuccessJSON(c, resp)
}

// CreateProduct adds a product to the catalog
func (h *Handler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, response.InvalidInput("Invalid request format: "+err.Error()))
		return
	}

	resp, err := h.merchant.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		logging.Errorf("Failed to create product: %v", err)
		response.ErrorJSON(c, err)
		return
	}

	response.SuccessJSON(c, resp)
}

// ListProducts lists the catalog
func (h *Handler) ListProducts(c *gin.Context) {
	resp, err := h.merchant.ListProducts(c.Request.Context())
	if err != nil {
		logging.Errorf("Failed to list products: %v", err)
		response.ErrorJSON(c, err)
		return
	}

	response.SuccessJSON(c, resp)
}
