package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MerchantAuthMiddleware(apiKey))
	r.GET("/products", func(c *gin.Context) {
		// the middleware leaves no values on the context
		c.String(http.StatusOK, strconv.Itoa(len(c.Keys)))
	})
	return r
}

func TestMerchantAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		header string
		query  string
		want   int
		body   string
	}{
		{name: "disabled", apiKey: "", want: http.StatusOK},
		{name: "header", apiKey: "k3y", header: "k3y", want: http.StatusOK},
		{name: "query", apiKey: "k3y", query: "?api_key=k3y", want: http.StatusOK},
		{name: "missing", apiKey: "k3y", want: http.StatusUnauthorized, body: `{"error":-1,"error_note":"Missing api_key"}`},
		{name: "wrong", apiKey: "k3y", header: "nope", want: http.StatusUnauthorized, body: `{"error":-1,"error_note":"Invalid api_key"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/products"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			w := httptest.NewRecorder()
			newRouter(tt.apiKey).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "0", w.Body.String())
			}
			if tt.body != "" {
				assert.JSONEq(t, tt.body, w.Body.String())
			}
		})
	}
}
