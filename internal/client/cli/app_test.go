package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ordersync/internal/client/config"
	"github.com/dmitrijs2005/ordersync/internal/client/scope"
	"github.com/dmitrijs2005/ordersync/internal/client/services"
	"github.com/dmitrijs2005/ordersync/internal/client/watcher"
	"github.com/dmitrijs2005/ordersync/internal/logging"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

type fakeSession struct {
	services.SessionService
	id     models.Identity
	signIn []string
	wiped  bool
}

func (f *fakeSession) Current() models.Identity { return f.id }
func (f *fakeSession) SignIn(_ context.Context, email, name, token string) (models.Identity, error) {
	f.signIn = []string{email, name, token}
	f.id.User = &models.AuthenticatedUser{ID: email, Email: email, DisplayName: name, Role: models.RoleCustomer}
	return f.id, nil
}
func (f *fakeSession) SignOut(context.Context) (models.Identity, error) {
	f.id.User = nil
	return f.id, nil
}
func (f *fakeSession) Wipe(context.Context) (models.Identity, error) {
	f.wiped = true
	f.id = models.Identity{DeviceID: "dev-new"}
	return f.id, nil
}
func (f *fakeSession) Close(context.Context) error { return nil }

type fakeOrders struct {
	services.OrderService
	fetch    services.FetchResult
	fetchAll bool
	memory   []models.Order
	updated  []string
	report   services.PropagationReport
	deleted  string
	reset    bool
}

func (f *fakeOrders) FetchOrders(_ context.Context, opts services.FetchOptions) (services.FetchResult, error) {
	f.fetchAll = opts.All
	return f.fetch, nil
}
func (f *fakeOrders) Orders() []models.Order { return f.memory }
func (f *fakeOrders) UpdateOrderStatus(_ context.Context, id string, st models.Status) (models.Order, error) {
	f.updated = []string{id, string(st)}
	return models.Order{ID: id, Status: st}, nil
}
func (f *fakeOrders) DeleteOrder(_ context.Context, id string) (services.PropagationReport, error) {
	f.deleted = id
	return f.report, nil
}
func (f *fakeOrders) Reset() { f.reset = true }

type fakeCart struct {
	services.CartService
	cart     models.Cart
	checkout services.CheckoutRequest
	adopted  bool
}

func (f *fakeCart) Get(context.Context) models.Cart { return f.cart }
func (f *fakeCart) Add(_ context.Context, item models.CartItem) (models.Cart, error) {
	f.cart = f.cart.Add(item)
	return f.cart, nil
}
func (f *fakeCart) Remove(_ context.Context, id string) (models.Cart, error) {
	f.cart = f.cart.SetQuantity(id, 0)
	return f.cart, nil
}
func (f *fakeCart) Checkout(_ context.Context, req services.CheckoutRequest) (services.CreateResult, error) {
	f.checkout = req
	return services.CreateResult{
		Order:    models.Order{ID: "ORD-1", FinalTotal: decimal.RequireFromString("19.98")},
		Degraded: true,
		Warning:  "saved locally",
	}, nil
}
func (f *fakeCart) AdoptGuestCart(context.Context) (models.Cart, error) {
	f.adopted = true
	return f.cart, nil
}

type fakeDetector struct {
	state       watcher.State
	activations int
}

func (f *fakeDetector) Activate(context.Context) { f.activations++; f.state = watcher.BaselinePending }
func (f *fakeDetector) Deactivate()              { f.state = watcher.Inactive }
func (f *fakeDetector) State() watcher.State     { return f.state }

type harness struct {
	app      *App
	out      *bytes.Buffer
	session  *fakeSession
	orders   *fakeOrders
	cart     *fakeCart
	detector *fakeDetector
}

func newHarness(t *testing.T, input string, admin bool) *harness {
	t.Helper()

	oldTerm := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = oldTerm })

	h := &harness{
		out:      &bytes.Buffer{},
		session:  &fakeSession{id: models.Identity{DeviceID: "dev-1"}},
		orders:   &fakeOrders{},
		cart:     &fakeCart{},
		detector: &fakeDetector{},
	}
	if admin {
		h.session.id.User = &models.AuthenticatedUser{Email: "boss@example.com", Role: models.RoleAdmin}
	}
	cfg := &config.Config{}
	cfg.LoadDefaults()

	h.app = &App{
		config:   cfg,
		log:      logging.Nop(),
		session:  h.session,
		orders:   h.orders,
		cart:     h.cart,
		detector: h.detector,
		reader:   rdr(input),
		out:      h.out,
	}
	return h
}

func TestApp_Status(t *testing.T) {
	h := newHarness(t, "", false)
	assert.Equal(t, "", h.app.status())

	h = newHarness(t, "", true)
	h.detector.state = watcher.Armed
	assert.Equal(t, "(boss@example.com admin watching)", h.app.status())
}

func TestApp_AddToCartFromArgs(t *testing.T) {
	h := newHarness(t, "", false)

	require.NoError(t, h.app.AddToCart(context.Background(), []string{"p1", "9.99", "2", "Blue", "mug"}))

	require.Len(t, h.cart.cart.Items, 1)
	it := h.cart.cart.Items[0]
	assert.Equal(t, "p1", it.ProductID)
	assert.Equal(t, "Blue mug", it.Name)
	assert.Equal(t, 2, it.Quantity)
	assert.True(t, it.UnitPrice.Equal(decimal.RequireFromString("9.99")))
	assert.Contains(t, h.out.String(), "19.98")
}

func TestApp_AddToCartPrompts(t *testing.T) {
	h := newHarness(t, "p2\n5\n\n", false)

	require.NoError(t, h.app.AddToCart(context.Background(), nil))

	require.Len(t, h.cart.cart.Items, 1)
	assert.Equal(t, "p2", h.cart.cart.Items[0].Name, "name defaults to the product id")
	assert.Equal(t, 1, h.cart.cart.Items[0].Quantity)
}

func TestApp_AddToCartRejectsBadInput(t *testing.T) {
	h := newHarness(t, "", false)
	ctx := context.Background()

	assert.Error(t, h.app.AddToCart(ctx, []string{"p1", "cheap"}))
	assert.Error(t, h.app.AddToCart(ctx, []string{"p1", "1.00", "0"}))
	assert.True(t, h.cart.cart.Empty())
}

func TestApp_Checkout(t *testing.T) {
	input := "Ann\n+371000\n\nMain st 1\n\nbank_transfer\nSPRING\n1.50\n"
	h := newHarness(t, input, false)
	h.session.id.User = &models.AuthenticatedUser{Email: "ann@example.com", Role: models.RoleCustomer}
	h.cart.cart = models.Cart{}.Add(models.CartItem{ProductID: "p1", Name: "Mug", UnitPrice: decimal.NewFromInt(10), Quantity: 2})

	require.NoError(t, h.app.Checkout(context.Background()))

	req := h.cart.checkout
	assert.Equal(t, "Ann", req.Contact.Name)
	assert.Equal(t, "ann@example.com", req.Contact.Email, "email defaults to the signed-in user")
	assert.Equal(t, models.PaymentBankTransfer, req.PaymentMethod)
	assert.Equal(t, "SPRING", req.CouponCode)
	assert.True(t, req.DiscountAmount.Equal(decimal.RequireFromString("1.5")))
	assert.Contains(t, h.out.String(), "Warning: saved locally")
	assert.Contains(t, h.out.String(), "Order ORD-1 placed, total 19.98")
}

func TestApp_CheckoutEmptyCart(t *testing.T) {
	h := newHarness(t, "", false)
	assert.ErrorIs(t, h.app.Checkout(context.Background()), services.ErrEmptyCart)
}

func TestApp_SignInAdoptsGuestCart(t *testing.T) {
	h := newHarness(t, "ann@example.com\nAnn\n\n", false)

	require.NoError(t, h.app.SignIn(context.Background()))

	assert.Equal(t, []string{"ann@example.com", "Ann", ""}, h.session.signIn)
	assert.True(t, h.cart.adopted)
	assert.Contains(t, h.out.String(), "Signed in as ann@example.com")
}

func TestApp_SignOutStopsWatcher(t *testing.T) {
	h := newHarness(t, "", true)
	h.detector.state = watcher.Armed

	require.NoError(t, h.app.SignOut(context.Background()))

	assert.Equal(t, watcher.Inactive, h.detector.state)
	assert.True(t, h.orders.reset)
	assert.False(t, h.app.isSignedIn())
}

func TestApp_WipeNeedsConfirmation(t *testing.T) {
	h := newHarness(t, "no\n", false)
	require.NoError(t, h.app.Wipe(context.Background()))
	assert.False(t, h.session.wiped)

	h = newHarness(t, "yes\n", false)
	require.NoError(t, h.app.Wipe(context.Background()))
	assert.True(t, h.session.wiped)
	assert.True(t, h.orders.reset)
	assert.Contains(t, h.out.String(), "dev-new")
}

func TestApp_ListOrdersDegraded(t *testing.T) {
	h := newHarness(t, "", false)
	h.orders.fetch = services.FetchResult{
		Orders:   []models.Order{{ID: "ORD-9", Status: models.StatusPending, CreatedAt: time.Now()}},
		Scope:    scope.Device("dev-1"),
		Degraded: true,
		Warning:  "store unreachable, showing cached orders",
	}

	require.NoError(t, h.app.ListOrders(context.Background(), true))

	assert.True(t, h.orders.fetchAll)
	assert.Contains(t, h.out.String(), "Warning: store unreachable")
	assert.Contains(t, h.out.String(), "ORD-9")
}

func TestApp_AdminCommandsNeedAdmin(t *testing.T) {
	h := newHarness(t, "", false)
	ctx := context.Background()

	assert.ErrorIs(t, h.app.SetStatus(ctx, []string{"ORD-1", "paid"}), ErrAdminOnly)
	assert.ErrorIs(t, h.app.DeleteOrder(ctx, []string{"ORD-1"}), ErrAdminOnly)
	assert.ErrorIs(t, h.app.Watch(ctx), ErrAdminOnly)
	assert.Zero(t, h.detector.activations)
}

func TestApp_SetStatusWarnsOnIrregularTransition(t *testing.T) {
	h := newHarness(t, "", true)
	h.orders.memory = []models.Order{{ID: "ORD-1", Status: models.StatusDelivered}}

	require.NoError(t, h.app.SetStatus(context.Background(), []string{"ORD-1", "pending"}))

	assert.Equal(t, []string{"ORD-1", "pending"}, h.orders.updated)
	assert.Contains(t, h.out.String(), "Warning: delivered -> pending")

	err := h.app.SetStatus(context.Background(), []string{"ORD-1", "lost"})
	assert.Error(t, err)
}

func TestApp_DeleteOrderReportsPartialFailure(t *testing.T) {
	h := newHarness(t, "", true)
	h.orders.report = services.PropagationReport{
		Purged: []scope.Key{scope.All, scope.Device("dev-1")},
		Failed: map[string]error{"guest": errors.New("disk full")},
	}

	require.NoError(t, h.app.DeleteOrder(context.Background(), []string{"ORD-1"}))

	assert.Equal(t, "ORD-1", h.orders.deleted)
	assert.Contains(t, h.out.String(), "removed from 2 cached scope(s)")
	assert.Contains(t, h.out.String(), "Warning: cache guest still holds the order: disk full")
}

func TestApp_WatchAndNotify(t *testing.T) {
	h := newHarness(t, "", true)

	require.NoError(t, h.app.Watch(context.Background()))
	assert.Equal(t, 1, h.detector.activations)

	h.app.notify(context.Background(), watcher.Notification{
		NewOrders: []models.Order{{ID: "ORD-2"}, {ID: "ORD-3"}},
		Total:     7,
	})
	assert.Contains(t, h.out.String(), "\a\n2 new order(s), 7 in total:")
	assert.Contains(t, h.out.String(), "ORD-3")

	require.NoError(t, h.app.Unwatch(context.Background()))
	assert.Equal(t, watcher.Inactive, h.detector.state)
}
