package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MerchantError is the 400 body of the merchant-facing endpoints
type MerchantError struct {
	Error     int    `json:"error"`
	ErrorNote string `json:"error_note"`
}

// JSON sends a JSON response
func JSON(c *gin.Context, statusCode int, body interface{}) {
	c.JSON(statusCode, body)
}

// SuccessJSON sends a 200 response
func SuccessJSON(c *gin.Context, body interface{}) {
	JSON(c, http.StatusOK, body)
}

// ErrorJSON sends a merchant error with the status carried by err, or 500
// for anything that is not a *ClickError.
func ErrorJSON(c *gin.Context, err error) {
	ce, ok := AsClickError(err)
	if !ok {
		JSON(c, http.StatusInternalServerError, MerchantError{Error: CodeUpdateFailed, ErrorNote: "Internal error"})
		return
	}
	status := ce.HTTPStatus
	if status == 0 {
		status = http.StatusBadRequest
	}
	JSON(c, status, MerchantError{Error: ce.Code, ErrorNote: ce.Note})
}
