package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ordersync/internal/auth"
	"github.com/dmitrijs2005/ordersync/internal/common"
	"github.com/dmitrijs2005/ordersync/internal/logging"
	"github.com/dmitrijs2005/ordersync/internal/models"
	"github.com/dmitrijs2005/ordersync/internal/server/config"
	"github.com/dmitrijs2005/ordersync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ordersync/internal/server/services"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, secret string, scopeFilter bool) *gin.Engine {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ScopeFilter = scopeFilter

	svc := services.NewOrderService(nil, repomanager.NewInMemoryRepositoryManager(), cfg, logging.Nop())
	return NewRouter(RouterDeps{Orders: svc, JWTSecret: secret, Logger: logging.Nop()})
}

func token(t *testing.T, role models.Role) string {
	t.Helper()
	tok, err := auth.GenerateToken(models.AuthenticatedUser{
		ID:    "u-" + string(role),
		Email: string(role) + "@shop.io",
		Role:  role,
	}, []byte(testSecret), time.Hour, time.Now())
	require.NoError(t, err)
	return tok
}

type req struct {
	method, path string
	body         any
	device       string
	token        string
}

func do(t *testing.T, r http.Handler, rq req) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	switch b := rq.body.(type) {
	case nil:
	case string:
		body.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&body).Encode(b))
	}

	httpReq := httptest.NewRequest(rq.method, rq.path, &body)
	httpReq.Header.Set("Content-Type", "application/json")
	if rq.device != "" {
		httpReq.Header.Set(common.DeviceIDHeader, rq.device)
	}
	if rq.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+rq.token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	return w
}

func sampleOrder(t *testing.T, at time.Time) models.Order {
	t.Helper()
	o, err := models.NewOrder(models.OrderDraft{
		Items: []models.LineItem{{
			ProductID:         "p1",
			NameSnapshot:      "Mug",
			UnitPriceSnapshot: decimal.RequireFromString("4.25"),
			Quantity:          2,
		}},
		DiscountAmount: decimal.RequireFromString("0.50"),
		Contact:        models.CustomerContact{Name: "Ann", Phone: "1", Address: "Main st"},
		PaymentMethod:  models.PaymentCashOnDelivery,
	}, at)
	require.NoError(t, err)
	return o
}

func decodeOrders(t *testing.T, w *httptest.ResponseRecorder) []models.Order {
	t.Helper()
	var out []models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out["error"]
}

func newRawRequest(method, path string) (*http.Request, *httptest.ResponseRecorder) {
	return httptest.NewRequest(method, path, nil), httptest.NewRecorder()
}
