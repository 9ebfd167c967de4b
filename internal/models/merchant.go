package models

import "time"

// CreateTransactionRequest starts a purchase of a product by a phone number
type CreateTransactionRequest struct {
	ProductID uint      `json:"product_id" binding:"required"`
	Phone     string    `json:"phone" binding:"required,max=32"`
	FirstName string    `json:"first_name" binding:"required"`
	LastName  string    `json:"last_name" binding:"required"`
	Date      time.Time `json:"date" binding:"required"`
}

// CreateTransactionResponse tells the storefront how much Click must collect
type CreateTransactionResponse struct {
	TransactionID uint  `json:"transaction_id"`
	UserID        uint  `json:"user_id"`
	Amount        int64 `json:"amount"`
}

// CreateProductRequest adds a product to the catalog
type CreateProductRequest struct {
	City    string `json:"city" binding:"required"`
	Country string `json:"country" binding:"required"`
	Price   int64  `json:"price" binding:"required,gt=0"`
}

// CreateProductResponse carries the new product id
type CreateProductResponse struct {
	ProductID uint `json:"product_id"`
}

// ProductSummary is the public view of a product, without its price
type ProductSummary struct {
	ID      uint   `json:"id"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// ProductsResponse lists the catalog
type ProductsResponse struct {
	Products []ProductSummary `json:"products"`
}
