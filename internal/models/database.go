package models

import (
	"time"
)

// BaseModel provides common fields for all database models.
// Rows are never deleted by this service, so there is no soft-delete column.
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Product is a sellable tour; price is in minor currency units
type Product struct {
	BaseModel
	City    string `json:"city" gorm:"not null"`
	Country string `json:"country" gorm:"not null"`
	Price   int64  `json:"price" gorm:"not null"`
}

// TableName overrides the singular naming strategy
func (Product) TableName() string {
	return "products"
}

// User is the buyer, identified by phone number
type User struct {
	BaseModel
	Phone     string `json:"phone" gorm:"not null;size:32;uniqueIndex"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (User) TableName() string {
	return "users"
}
