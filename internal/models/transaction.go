package models

import (
	"time"
)

// Transaction is one purchase going through the Click prepare/complete flow.
//
// ClickTransID, SignTime and Amount stay nil until a successful Prepare.
// Paid flips to true exactly once, on a successful Complete.
type Transaction struct {
	BaseModel

	ProductID uint    `json:"product_id" gorm:"not null;index"`
	Product   Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	UserID    uint    `json:"user_id" gorm:"not null;index"`
	User      User    `json:"user,omitempty" gorm:"foreignKey:UserID"`

	Date time.Time `json:"date"`

	// Written by Prepare
	ClickTransID *int64  `json:"click_trans_id" gorm:"index"`
	SignTime     *string `json:"sign_time" gorm:"size:32"`
	Amount       *int64  `json:"amount"`

	Paid bool `json:"paid" gorm:"not null;default:false;index"`
}

// TableName overrides the singular naming strategy
func (Transaction) TableName() string {
	return "transactions"
}

// State is the position of the transaction in the prepare/complete flow
type State string

const (
	StateCreated  State = "created"
	StatePrepared State = "prepared"
	StatePaid     State = "paid"
)

// State derives the lifecycle state from the stored columns
func (t *Transaction) State() State {
	switch {
	case t.Paid:
		return StatePaid
	case t.ClickTransID != nil && t.Amount != nil:
		return StatePrepared
	default:
		return StateCreated
	}
}
