package api

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"click-merchant-api/internal/database"
	"click-merchant-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const secret = "merchant-secret"

var apiDBSeq atomic.Int64

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(_ context.Context, _ services.Notification) {}

func newTestRouter(t *testing.T, apiKey string) (*gin.Engine, *database.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(fmt.Sprintf("file:api_%d?mode=memory&cache=shared", apiDBSeq.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db, nil) })

	store := database.NewStore(db)
	svc := services.NewMerchantService(store, services.NewSignatureVerifier(secret), services.NewLocalLocker(), nopDispatcher{}, zaptest.NewLogger(t))

	r := gin.New()
	SetupRoutes(r, NewHandler(svc), apiKey)
	return r, store
}

func sign(parts ...string) string {
	h := md5.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(h[:])
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doForm(t *testing.T, r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestEndToEnd_FormCallbacks(t *testing.T) {
	r, store := newTestRouter(t, "")

	w := doJSON(t, r, http.MethodPost, "/products", `{"city":"Tashkent","country":"UZ","price":100000}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"product_id":1}`, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/transactions",
		`{"product_id":1,"phone":"+998901112233","first_name":"Aziz","last_name":"Karimov","date":"2024-05-01T12:00:00Z"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"transaction_id":1,"user_id":1,"amount":100000}`, w.Body.String())

	signTime := "2024-05-01 12:00:00"
	prepare := url.Values{
		"click_trans_id":    {"2001"},
		"service_id":        {"77"},
		"click_paydoc_id":   {"3001"},
		"merchant_trans_id": {"1"},
		"amount":            {"100000.00"},
		"action":            {"0"},
		"error":             {"0"},
		"error_note":        {"Success"},
		"sign_time":         {signTime},
		"sign_string":       {sign("2001", "77", secret, "1", "100000", "0", signTime)},
	}
	w = doForm(t, r, "/click/prepare", prepare)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"click_trans_id":2001,"merchant_trans_id":"1","merchant_prepare_id":1,"error":0,"error_note":"Success"}`, w.Body.String())

	complete := url.Values{
		"click_trans_id":      {"2001"},
		"service_id":          {"77"},
		"click_paydoc_id":     {"3001"},
		"merchant_trans_id":   {"1"},
		"merchant_prepare_id": {"1"},
		"amount":              {"100000.00"},
		"action":              {"1"},
		"error":               {"0"},
		"error_note":          {"Success"},
		"sign_time":           {signTime},
		"sign_string":         {sign("2001", "77", secret, "1", "1", "100000", "1", signTime)},
	}
	w = doForm(t, r, "/click/complete", complete)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"click_trans_id":2001,"merchant_trans_id":"1","merchant_confirm_id":0,"error":0,"error_note":"Success"}`, w.Body.String())

	tx, err := store.GetTransaction(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, tx.Paid)

	// replayed complete
	w = doForm(t, r, "/complete", complete)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"click_trans_id":0,"merchant_trans_id":"0","merchant_confirm_id":0,"error":-4,"error_note":"Transaction already paid"}`, w.Body.String())
}

func TestClickPrepare_JSONWithNumericMerchantTransID(t *testing.T) {
	r, _ := newTestRouter(t, "")
	doJSON(t, r, http.MethodPost, "/products", `{"city":"Tashkent","country":"UZ","price":5000}`)
	doJSON(t, r, http.MethodPost, "/transactions",
		`{"product_id":1,"phone":"+998901112233","first_name":"Aziz","last_name":"Karimov","date":"2024-05-01T12:00:00Z"}`)

	signTime := "2024-05-01 12:00:00"
	body := fmt.Sprintf(`{"click_trans_id":10,"service_id":77,"merchant_trans_id":1,"amount":5000,"action":0,"sign_time":%q,"sign_string":%q}`,
		signTime, sign("10", "77", secret, "1", "5000", "0", signTime))

	w := doJSON(t, r, http.MethodPost, "/prepare", body)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, float64(0), out["error"])
	assert.Equal(t, "1", out["merchant_trans_id"])
}

func TestClickPrepare_BadSignature(t *testing.T) {
	r, _ := newTestRouter(t, "")

	w := doJSON(t, r, http.MethodPost, "/click/prepare",
		`{"click_trans_id":10,"service_id":77,"merchant_trans_id":"1","amount":5000,"action":0,"sign_time":"t","sign_string":"bad"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"click_trans_id":0,"merchant_trans_id":"0","merchant_prepare_id":0,"error":-1,"error_note":"SIGN CHECK FAILED!"}`, w.Body.String())
}

func TestClickCallbacks_UnbindableBody(t *testing.T) {
	r, _ := newTestRouter(t, "")

	w := doJSON(t, r, http.MethodPost, "/click/prepare", `{"click_trans_id":`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(-8), decode(t, w)["error"])

	w = doForm(t, r, "/click/complete", url.Values{"click_trans_id": {"1"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"click_trans_id":0,"merchant_trans_id":"0","merchant_confirm_id":0,"error":-8,"error_note":"Error in request from click"}`, w.Body.String())
}

func TestCreateTransaction_ProductNotFound(t *testing.T) {
	r, _ := newTestRouter(t, "")

	w := doJSON(t, r, http.MethodPost, "/transactions",
		`{"product_id":7,"phone":"+998901112233","first_name":"Aziz","last_name":"Karimov","date":"2024-05-01T12:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":-1,"error_note":"Product not found"}`, w.Body.String())
}

func TestCreateProduct_InvalidBody(t *testing.T) {
	r, _ := newTestRouter(t, "")

	w := doJSON(t, r, http.MethodPost, "/products", `{"city":"Tashkent","country":"UZ","price":-5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, float64(-1), decode(t, w)["error"])
}

func TestListProducts(t *testing.T) {
	r, _ := newTestRouter(t, "")
	doJSON(t, r, http.MethodPost, "/products", `{"city":"Tashkent","country":"UZ","price":100000}`)

	w := doJSON(t, r, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"products":[{"id":1,"city":"Tashkent","country":"UZ"}]}`, w.Body.String())
}

func TestMerchantRoutesRequireAPIKey(t *testing.T) {
	r, _ := newTestRouter(t, "k3y")

	w := doJSON(t, r, http.MethodGet, "/products", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/products", "", "X-API-Key", "k3y")
	assert.Equal(t, http.StatusOK, w.Code)

	// gateway routes stay open
	w = doJSON(t, r, http.MethodPost, "/click/prepare", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t, "")

	w := doJSON(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	doJSON(t, r, http.MethodPost, "/click/prepare", `{}`)
	w = doJSON(t, r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "click_callbacks_total")
}
