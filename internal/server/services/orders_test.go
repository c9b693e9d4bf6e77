package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ordersync/internal/common"
	"github.com/dmitrijs2005/ordersync/internal/logging"
	"github.com/dmitrijs2005/ordersync/internal/models"
	"github.com/dmitrijs2005/ordersync/internal/server/config"
	"github.com/dmitrijs2005/ordersync/internal/server/repositories/repomanager"
)

func newService(scopeFilter bool) *OrderService {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ScopeFilter = scopeFilter
	return NewOrderService(nil, repomanager.NewInMemoryRepositoryManager(), cfg, logging.Nop())
}

func order(t *testing.T, at time.Time) models.Order {
	t.Helper()
	o, err := models.NewOrder(models.OrderDraft{
		Items: []models.LineItem{{
			ProductID:         "p1",
			NameSnapshot:      "Mug",
			UnitPriceSnapshot: decimal.RequireFromString("3.00"),
			Quantity:          1,
		}},
		Contact:       models.CustomerContact{Name: "Ann", Phone: "1", Address: "Main st"},
		PaymentMethod: models.PaymentBankTransfer,
	}, at)
	require.NoError(t, err)
	return o
}

func TestOrderService_CreateFillsDefaults(t *testing.T) {
	ctx := context.Background()
	s := newService(true)

	o := order(t, time.Now())
	o.Status = ""

	created, err := s.Create(ctx, o, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, "dev-1", created.OwnerDeviceID)

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", got.OwnerDeviceID)
}

func TestOrderService_CreateKeepsSentOwner(t *testing.T) {
	s := newService(true)
	o := order(t, time.Now())
	o.OwnerDeviceID = "dev-origin"

	created, err := s.Create(context.Background(), o, "dev-other")
	require.NoError(t, err)
	assert.Equal(t, "dev-origin", created.OwnerDeviceID)
}

func TestOrderService_CreateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Order)
	}{
		{"inconsistent totals", func(o *models.Order) { o.FinalTotal = decimal.RequireFromString("99") }},
		{"unknown status", func(o *models.Order) { o.Status = "lost" }},
		{"unknown payment", func(o *models.Order) { o.PaymentMethod = "barter" }},
		{"missing id", func(o *models.Order) { o.ID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newService(true)
			o := order(t, time.Now())
			tt.mutate(&o)

			_, err := s.Create(context.Background(), o, "dev-1")
			require.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestOrderService_CreateDuplicate(t *testing.T) {
	s := newService(true)
	o := order(t, time.Now())

	_, err := s.Create(context.Background(), o, "dev-1")
	require.NoError(t, err)
	_, err = s.Create(context.Background(), o, "dev-1")
	require.ErrorIs(t, err, common.ErrDuplicate)
}

func TestOrderService_ListScoped(t *testing.T) {
	ctx := context.Background()
	s := newService(true)
	now := time.Now()

	a := order(t, now.Add(-time.Minute))
	b := order(t, now)
	_, err := s.Create(ctx, a, "dev-a")
	require.NoError(t, err)
	_, err = s.Create(ctx, b, "dev-b")
	require.NoError(t, err)

	all, err := s.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)

	scope := "dev-a"
	mine, err := s.List(ctx, &scope)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)
}

func TestOrderService_ListScopedWithFilterOff(t *testing.T) {
	s := newService(false)
	scope := "dev-a"

	_, err := s.List(context.Background(), &scope)
	require.ErrorIs(t, err, common.ErrScopeFilter)

	_, err = s.List(context.Background(), nil)
	require.NoError(t, err)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := newService(true)
	o := order(t, time.Now())
	_, err := s.Create(ctx, o, "dev-1")
	require.NoError(t, err)

	// any valid status is accepted, even outside the regular lifecycle
	updated, err := s.UpdateStatus(ctx, o.ID, models.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, updated.Status)

	_, err = s.UpdateStatus(ctx, o.ID, "bogus")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = s.UpdateStatus(ctx, "ORD-missing", models.StatusPaid)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestOrderService_Delete(t *testing.T) {
	ctx := context.Background()
	s := newService(true)
	o := order(t, time.Now())
	_, err := s.Create(ctx, o, "dev-1")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, o.ID))
	require.ErrorIs(t, s.Delete(ctx, o.ID), common.ErrNotFound)

	_, err = s.Get(ctx, o.ID)
	require.ErrorIs(t, err, common.ErrNotFound)
}
