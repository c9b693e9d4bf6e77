package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/ordersync/internal/client/cache"
	"github.com/dmitrijs2005/ordersync/internal/client/client"
	"github.com/dmitrijs2005/ordersync/internal/client/repositories/kvstore"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

var errOffline = fmt.Errorf("%w: dial tcp 127.0.0.1:8080: connection refused", client.ErrUnavailable)

func newStore(t *testing.T) *kvstore.SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE slots (slot TEXT PRIMARY KEY, body BLOB NOT NULL, updated_at TIMESTAMP)`)
	require.NoError(t, err)
	return kvstore.NewSQLiteStore(db)
}

type fixedIdentity struct {
	mu sync.Mutex
	id models.Identity
}

func (f *fixedIdentity) Current() models.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

func device(id string) *fixedIdentity {
	return &fixedIdentity{id: models.Identity{DeviceID: id}}
}

func adminOn(id string) *fixedIdentity {
	return &fixedIdentity{id: models.Identity{DeviceID: id, User: &models.AuthenticatedUser{ID: "a", Email: "admin@shop.io", Role: models.RoleAdmin}}}
}

// fakeClient is an in-memory order store.
type fakeClient struct {
	client.Client

	mu               sync.Mutex
	orders           []models.Order
	listErr          error
	createErr        error
	updateErr        error
	deleteErr        error
	scopeUnsupported bool
	// statusOverride, when set, is what the store reports back on update.
	statusOverride models.Status

	listScopes []string
	creates    []models.Order
}

func (f *fakeClient) ListOrders(_ context.Context, deviceScope *string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := "*"
	if deviceScope != nil {
		s = *deviceScope
	}
	f.listScopes = append(f.listScopes, s)

	if f.listErr != nil {
		return nil, f.listErr
	}
	if deviceScope != nil && f.scopeUnsupported {
		return nil, &client.RejectedError{StatusCode: 404, Err: client.ErrScopeUnsupported}
	}

	out := []models.Order{}
	for _, o := range f.orders {
		if deviceScope == nil || o.OwnerDeviceID == *deviceScope {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeClient) CreateOrder(_ context.Context, order models.Order) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, order)
	if f.createErr != nil {
		return models.Order{}, f.createErr
	}
	if models.IndexOf(f.orders, order.ID) >= 0 {
		return models.Order{}, &client.RejectedError{StatusCode: 409, Err: client.ErrConflict}
	}
	f.orders = append(f.orders, order)
	return order, nil
}

func (f *fakeClient) UpdateOrderStatus(_ context.Context, id string, status models.Status) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return models.Order{}, f.updateErr
	}
	i := models.IndexOf(f.orders, id)
	if i < 0 {
		return models.Order{}, &client.RejectedError{StatusCode: 404, Err: client.ErrNotFound}
	}
	if f.statusOverride != "" {
		status = f.statusOverride
	}
	f.orders[i].Status = status
	return f.orders[i], nil
}

func (f *fakeClient) DeleteOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	rest, ok := models.Without(f.orders, id)
	if !ok {
		return &client.RejectedError{StatusCode: 404, Err: client.ErrNotFound}
	}
	f.orders = rest
	return nil
}

func (f *fakeClient) SetCredentials(string, string) {}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) Ping(context.Context) error { return nil }

// failingStore fails writes to slots starting with any of the prefixes.
type failingStore struct {
	cache.Store
	prefixes []string
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	for _, p := range f.prefixes {
		if strings.HasPrefix(key, p) {
			return errors.New("disk full")
		}
	}
	return f.Store.Set(ctx, key, value)
}

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func mkOrder(id, owner, email string, minutes int) models.Order {
	price := decimal.RequireFromString("10.00")
	return models.Order{
		ID:             id,
		LineItems:      []models.LineItem{{ProductID: "p-" + id, NameSnapshot: "Item " + id, UnitPriceSnapshot: price, Quantity: 2}},
		Subtotal:       decimal.RequireFromString("20.00"),
		DiscountAmount: decimal.RequireFromString("5.00"),
		FinalTotal:     decimal.RequireFromString("15.00"),
		Contact:        models.CustomerContact{Name: "N", Phone: "1", Email: email, Address: "A"},
		PaymentMethod:  models.PaymentCashOnDelivery,
		Status:         models.StatusPending,
		CreatedAt:      t0.Add(time.Duration(minutes) * time.Minute),
		OwnerDeviceID:  owner,
	}
}

func ids(orders []models.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}
