package orders

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ordersync/internal/models"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mkOrder(t *testing.T, id, owner string, at time.Time) models.Order {
	t.Helper()
	o, err := models.NewOrder(models.OrderDraft{
		Items: []models.LineItem{{
			ProductID:         "p1",
			NameSnapshot:      "Mug",
			UnitPriceSnapshot: decimal.RequireFromString("4.50"),
			Quantity:          2,
		}},
		Contact:       models.CustomerContact{Name: "Ann", Phone: "1", Email: "Ann@Example.com", Address: "Main st"},
		PaymentMethod: models.PaymentCashOnDelivery,
	}, at)
	require.NoError(t, err)
	o.ID = id
	o.OwnerDeviceID = owner
	return o
}

func mustDoc(t *testing.T, o models.Order) []byte {
	t.Helper()
	b, err := json.Marshal(o)
	require.NoError(t, err)
	return b
}
