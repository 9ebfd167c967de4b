package middleware

import (
	"crypto/subtle"
	"net/http"

	"click-merchant-api/internal/response"

	"github.com/gin-gonic/gin"
)

// MerchantAuthMiddleware protects storefront routes with a static API key.
// An empty apiKey disables the check.
func MerchantAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		provided := c.GetHeader("X-API-Key")
		// If not passed via header, try to get from query parameters
		if provided == "" {
			provided = c.Query("api_key")
		}

		if provided == "" {
			c.JSON(http.StatusUnauthorized, response.MerchantError{Error: response.CodeSignCheckFailed, ErrorNote: "Missing api_key"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, response.MerchantError{Error: response.CodeSignCheckFailed, ErrorNote: "Invalid api_key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
