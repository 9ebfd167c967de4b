package services

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"click-merchant-api/internal/models"
)

// SignFields are the callback fields covered by the Click signature
type SignFields struct {
	ClickTransID    int64
	ServiceID       int64
	MerchantTransID string
	// MerchantPrepareID is only signed for the complete action
	MerchantPrepareID int64
	Amount            string
	Action            int
	SignTime          string
}

// SignatureVerifier checks Click sign_string values. It holds the merchant
// secret and never exposes it.
type SignatureVerifier struct {
	secretKey string
}

// NewSignatureVerifier creates a verifier for the merchant secret key
func NewSignatureVerifier(secretKey string) *SignatureVerifier {
	return &SignatureVerifier{secretKey: secretKey}
}

// Sign computes the lowercase hex MD5 of
// click_trans_id + service_id + secret_key + merchant_trans_id
// [+ merchant_prepare_id] + amount + action + sign_time.
func (v *SignatureVerifier) Sign(f SignFields) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(f.ClickTransID, 10))
	b.WriteString(strconv.FormatInt(f.ServiceID, 10))
	b.WriteString(v.secretKey)
	b.WriteString(f.MerchantTransID)
	if f.Action == models.ActionComplete {
		b.WriteString(strconv.FormatInt(f.MerchantPrepareID, 10))
	}
	b.WriteString(f.Amount)
	b.WriteString(strconv.Itoa(f.Action))
	b.WriteString(f.SignTime)

	hash := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

// Verify reports whether provided is the signature of f. Hex case is ignored.
func (v *SignatureVerifier) Verify(f SignFields, provided string) bool {
	return strings.EqualFold(v.Sign(f), strings.TrimSpace(provided))
}
