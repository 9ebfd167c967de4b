package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Click action discriminators, also part of the signed string
const (
	ActionPrepare  = 0
	ActionComplete = 1
)

// MerchantTransID is our transaction id as echoed back by Click.
// The gateway sends it either as a JSON number or as text; it is always kept
// in canonical decimal text form.
type MerchantTransID string

// CanonicalID renders an id the way the gateway's number formatting does:
// "007" and 7.0 both become "7". Non numeric input is returned trimmed.
func CanonicalID(raw string) string {
	raw = strings.TrimSpace(raw)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return d.String()
}

func (id *MerchantTransID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = MerchantTransID(CanonicalID(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("merchant_trans_id: %w", err)
	}
	*id = MerchantTransID(CanonicalID(n.String()))
	return nil
}

// UnmarshalParam is used by gin form binding
func (id *MerchantTransID) UnmarshalParam(param string) error {
	*id = MerchantTransID(CanonicalID(param))
	return nil
}

func (id MerchantTransID) String() string {
	return CanonicalID(string(id))
}

// TransactionID parses the id into a primary key. ok is false for anything
// that is not a positive integer.
func (id MerchantTransID) TransactionID() (uint, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(string(id)))
	if err != nil || !d.IsInteger() || !d.IsPositive() {
		return 0, false
	}
	if !d.LessThanOrEqual(decimal.NewFromInt(int64(^uint32(0)))) {
		return 0, false
	}
	return uint(d.IntPart()), true
}

// Amount is a money amount as sent by Click, e.g. 1000 or "1000.00".
type Amount struct {
	decimal.Decimal
}

// NewAmount builds an Amount from minor units
func NewAmount(v int64) Amount {
	return Amount{decimal.NewFromInt(v)}
}

// UnmarshalParam is used by gin form binding
func (a *Amount) UnmarshalParam(param string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(param))
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	a.Decimal = d
	return nil
}

// String is the signing form: trailing fractional zeros are dropped,
// so "1000.00" signs as "1000".
func (a Amount) String() string {
	return a.Decimal.String()
}

// Equals reports whether the amount is exactly price minor units
func (a Amount) Equals(price int64) bool {
	return a.Decimal.Equal(decimal.NewFromInt(price))
}

// PrepareRequest is the body of the Click prepare callback
type PrepareRequest struct {
	ClickTransID    int64           `json:"click_trans_id" form:"click_trans_id" binding:"required"`
	ServiceID       int64           `json:"service_id" form:"service_id" binding:"required"`
	ClickPaydocID   int64           `json:"click_paydoc_id" form:"click_paydoc_id"`
	MerchantTransID MerchantTransID `json:"merchant_trans_id" form:"merchant_trans_id" binding:"required"`
	Amount          Amount          `json:"amount" form:"amount"`
	Action          *int            `json:"action" form:"action"`
	Error           int             `json:"error" form:"error"`
	ErrorNote       string          `json:"error_note" form:"error_note"`
	SignTime        string          `json:"sign_time" form:"sign_time" binding:"required"`
	SignString      string          `json:"sign_string" form:"sign_string" binding:"required"`
}

// CompleteRequest is the body of the Click complete callback
type CompleteRequest struct {
	PrepareRequest
	MerchantPrepareID int64 `json:"merchant_prepare_id" form:"merchant_prepare_id"`
}

// PrepareResponse is the reply to a prepare callback
type PrepareResponse struct {
	ClickTransID      int64  `json:"click_trans_id"`
	MerchantTransID   string `json:"merchant_trans_id"`
	MerchantPrepareID uint   `json:"merchant_prepare_id"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
}

// CompleteResponse is the reply to a complete callback
type CompleteResponse struct {
	ClickTransID      int64  `json:"click_trans_id"`
	MerchantTransID   string `json:"merchant_trans_id"`
	MerchantConfirmID uint   `json:"merchant_confirm_id"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
}
