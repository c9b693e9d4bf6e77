package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/ordersync/internal/client/cache"
	"github.com/dmitrijs2005/ordersync/internal/client/client"
	"github.com/dmitrijs2005/ordersync/internal/client/scope"
	"github.com/dmitrijs2005/ordersync/internal/logging"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

const (
	OrdersCollection = "orders"
	OutboxCollection = "outbox"
)

var ErrNoDevice = errors.New("no device identity")

// Connectivity gates remote calls and learns from their outcome.
type Connectivity interface {
	Preflight(ctx context.Context) error
	Observe(ctx context.Context, err error)
}

type FetchOptions struct {
	// All requests every order regardless of scope. Admins always get all.
	All bool
}

type FetchResult struct {
	Orders []models.Order
	Scope  scope.Key
	// Degraded results come from the local cache because the store was
	// unreachable; Warning says so in words.
	Degraded   bool
	Warning    string
	CacheState cache.State
	CapturedAt time.Time
}

type CreateResult struct {
	Order    models.Order
	Degraded bool
	Warning  string
}

// OrderService keeps in-memory order state and the scoped order caches in
// line with the remote store.
//
// Reads: remote wins, the cache of the resolved scope is overwritten with the
// response. Unreachable store: cached orders plus a warning.
// Writes: remote first. An unreachable create is kept locally and replayed
// on the next fetch.
type OrderService interface {
	FetchOrders(ctx context.Context, opts FetchOptions) (FetchResult, error)
	CreateOrder(ctx context.Context, order models.Order) (CreateResult, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.Status) (models.Order, error)
	DeleteOrder(ctx context.Context, id string) (PropagationReport, error)
	Orders() []models.Order
	// Reset forgets the in-memory orders, e.g. after a local wipe.
	Reset()
}

type orderService struct {
	client     client.Client
	ids        IdentitySource
	orders     *cache.Cache[[]models.Order]
	outbox     *cache.Cache[[]models.Order]
	propagator *Propagator
	net        Connectivity
	log        logging.Logger
	now        func() time.Time

	mu     sync.Mutex
	memory []models.Order
}

// NewOrderService wires the controller. net may be nil, in which case every
// call goes straight to the store.
func NewOrderService(c client.Client, ids IdentitySource, store cache.Store, net Connectivity, log logging.Logger) OrderService {
	orders := cache.New[[]models.Order](store, OrdersCollection, log)
	return &orderService{
		client:     c,
		ids:        ids,
		orders:     orders,
		outbox:     cache.New[[]models.Order](store, OutboxCollection, log),
		propagator: NewPropagator(orders, log),
		net:        net,
		log:        log.With("module", "orders"),
		now:        time.Now,
	}
}

func (s *orderService) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Order(nil), s.memory...)
}

func (s *orderService) Reset() {
	s.mu.Lock()
	s.memory = nil
	s.mu.Unlock()
}

func (s *orderService) preflight(ctx context.Context) error {
	if s.net == nil {
		return nil
	}
	return s.net.Preflight(ctx)
}

func (s *orderService) observe(ctx context.Context, err error) {
	if s.net != nil {
		s.net.Observe(ctx, err)
	}
}

func (s *orderService) FetchOrders(ctx context.Context, opts FetchOptions) (FetchResult, error) {
	id := s.ids.Current()
	resolved := scope.Resolve(id)
	unscoped := opts.All || id.IsAdmin()

	readKey := resolved
	if unscoped {
		readKey = scope.All
	}

	if err := s.preflight(ctx); err != nil {
		return s.fallback(ctx, readKey, err), nil
	}

	if err := s.flushOutbox(ctx); err != nil {
		s.observe(ctx, err)
		return s.fallback(ctx, readKey, err), nil
	}

	orders, err := s.list(ctx, id, resolved, unscoped)
	s.observe(ctx, err)
	switch {
	case client.IsUnavailable(err):
		return s.fallback(ctx, readKey, err), nil
	case err != nil:
		return FetchResult{}, fmt.Errorf("fetch orders: %w", err)
	}

	models.SortNewestFirst(orders)
	s.mu.Lock()
	s.memory = orders
	s.mu.Unlock()

	s.overwrite(ctx, resolved, resolved.Filter(orders))
	if unscoped {
		s.overwrite(ctx, scope.All, orders)
	}

	return FetchResult{Orders: append([]models.Order(nil), orders...), Scope: readKey, CacheState: cache.Fresh, CapturedAt: s.now()}, nil
}

func (s *orderService) list(ctx context.Context, id models.Identity, resolved scope.Key, unscoped bool) ([]models.Order, error) {
	if unscoped || id.DeviceID == "" {
		orders, err := s.client.ListOrders(ctx, nil)
		if err != nil || unscoped {
			return orders, err
		}
		return resolved.Filter(orders), nil
	}

	device := id.DeviceID
	orders, err := s.client.ListOrders(ctx, &device)
	if !errors.Is(err, client.ErrScopeUnsupported) {
		return orders, err
	}

	s.log.Debug(ctx, "store lacks scoped listing, filtering locally")
	all, err := s.client.ListOrders(ctx, nil)
	if err != nil {
		return nil, err
	}
	return resolved.Filter(all), nil
}

// overwrite replaces the cached entry of key. Remote wins: nothing cached
// before survives.
func (s *orderService) overwrite(ctx context.Context, key scope.Key, orders []models.Order) {
	if orders == nil {
		orders = []models.Order{}
	}
	if err := s.orders.Save(ctx, key, orders); err != nil {
		s.log.Warn(ctx, "order cache not updated", "scope", key.String(), "error", err)
	}
}

func (s *orderService) fallback(ctx context.Context, key scope.Key, cause error) FetchResult {
	entry, st := s.orders.LoadEntry(ctx, key)

	s.mu.Lock()
	if len(entry.Payload) > 0 || len(s.memory) == 0 {
		s.memory = append([]models.Order(nil), entry.Payload...)
	}
	orders := append([]models.Order(nil), s.memory...)
	s.mu.Unlock()

	warning := "order store unreachable; no cached orders available"
	if st != cache.Missing {
		warning = fmt.Sprintf("order store unreachable; showing orders cached at %s", entry.CapturedAt.Local().Format(time.DateTime))
	}
	s.log.Warn(ctx, "falling back to cached orders", "scope", key.String(), "state", st.String(), "error", cause)

	return FetchResult{
		Orders:     orders,
		Scope:      key,
		Degraded:   true,
		Warning:    warning,
		CacheState: st,
		CapturedAt: entry.CapturedAt,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, order models.Order) (CreateResult, error) {
	id := s.ids.Current()
	if id.DeviceID == "" {
		return CreateResult{}, ErrNoDevice
	}

	order.OwnerDeviceID = id.DeviceID
	if order.ID == "" {
		order.ID = models.NewOrderID(s.now())
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now().UTC()
	}
	if order.Status == "" {
		order.Status = models.StatusPending
	}
	if err := order.Validate(); err != nil {
		return CreateResult{}, err
	}

	key := scope.Resolve(id)
	views := s.views(ctx, id, key)

	err := s.preflight(ctx)
	if err == nil {
		var created models.Order
		created, err = s.client.CreateOrder(ctx, order)
		s.observe(ctx, err)
		if err == nil && created.ID != "" {
			order = created
		}
	}

	switch {
	case err == nil:
		s.remember(ctx, order, views...)
		return CreateResult{Order: order}, nil
	case client.IsUnavailable(err):
		s.remember(ctx, order, views...)
		s.enqueue(ctx, key, order)
		s.log.Warn(ctx, "order kept locally until the store is reachable", "order", order.ID)
		return CreateResult{
			Order:    order,
			Degraded: true,
			Warning:  "order store unreachable; order saved on this device and will be sent on the next sync",
		}, nil
	default:
		return CreateResult{}, fmt.Errorf("create order: %w", err)
	}
}

// views lists the cached scopes a new order must show up in: the resolved
// scope, plus the global one whenever an unscoped fetch may read it back.
func (s *orderService) views(ctx context.Context, id models.Identity, key scope.Key) []scope.Key {
	if key == scope.All {
		return []scope.Key{key}
	}
	if id.IsAdmin() {
		return []scope.Key{key, scope.All}
	}
	if _, st := s.orders.Load(ctx, scope.All); st != cache.Missing {
		return []scope.Key{key, scope.All}
	}
	return []scope.Key{key}
}

// remember prepends order to memory and to the cached list of every key.
func (s *orderService) remember(ctx context.Context, order models.Order, keys ...scope.Key) {
	s.mu.Lock()
	rest, _ := models.Without(s.memory, order.ID)
	s.memory = append([]models.Order{order}, rest...)
	s.mu.Unlock()

	for _, key := range keys {
		cached, _ := s.orders.Load(ctx, key)
		rest, _ := models.Without(cached, order.ID)
		if err := s.orders.Save(ctx, key, append([]models.Order{order}, rest...)); err != nil {
			s.log.Warn(ctx, "order cache not updated", "scope", key.String(), "order", order.ID, "error", err)
		}
	}
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, id string, status models.Status) (models.Order, error) {
	if err := s.preflight(ctx); err != nil {
		return models.Order{}, fmt.Errorf("update order %s: %w", id, err)
	}
	updated, err := s.client.UpdateOrderStatus(ctx, id, status)
	s.observe(ctx, err)
	if err != nil {
		return models.Order{}, fmt.Errorf("update order %s: %w", id, err)
	}

	if updated.Status != "" {
		status = updated.Status
	}

	var local *models.Order
	s.mu.Lock()
	for i := range s.memory {
		if s.memory[i].ID == id {
			s.memory[i].Status = status
			o := s.memory[i]
			local = &o
		}
	}
	s.mu.Unlock()

	s.patchCachedStatus(ctx, id, status)

	switch {
	case updated.ID != "":
		return updated, nil
	case local != nil:
		return *local, nil
	}
	return models.Order{ID: id, Status: status}, nil
}

// patchCachedStatus sets the status of id in every cached scope holding it.
func (s *orderService) patchCachedStatus(ctx context.Context, id string, status models.Status) {
	keys, err := s.orders.Scopes(ctx)
	if err != nil {
		s.log.Warn(ctx, "cannot enumerate cached scopes", "error", err)
		return
	}

	for _, key := range keys {
		cached, st := s.orders.Load(ctx, key)
		if st == cache.Missing {
			continue
		}
		i := models.IndexOf(cached, id)
		if i < 0 {
			continue
		}
		cached[i].Status = status
		if err := s.orders.Save(ctx, key, cached); err != nil {
			s.log.Warn(ctx, "status patch not cached", "scope", key.String(), "order", id, "error", err)
		}
	}
}

func (s *orderService) DeleteOrder(ctx context.Context, id string) (PropagationReport, error) {
	if err := s.preflight(ctx); err != nil {
		return PropagationReport{}, fmt.Errorf("delete order %s: %w", id, err)
	}
	err := s.client.DeleteOrder(ctx, id)
	s.observe(ctx, err)
	if err != nil {
		return PropagationReport{}, fmt.Errorf("delete order %s: %w", id, err)
	}

	known := s.lookup(ctx, id)

	s.mu.Lock()
	s.memory, _ = models.Without(s.memory, id)
	s.mu.Unlock()

	var targets []scope.Key
	if known != nil {
		targets = scope.Targets(*known)
	} else {
		targets = append([]scope.Key{scope.All}, scope.Candidates(s.ids.Current())...)
	}
	report := s.propagator.Propagate(ctx, id, targets)
	s.dropQueued(ctx, id)
	return report, nil
}

// lookup finds the full record of id in memory, then in the global cache.
func (s *orderService) lookup(ctx context.Context, id string) *models.Order {
	s.mu.Lock()
	if i := models.IndexOf(s.memory, id); i >= 0 {
		o := s.memory[i]
		s.mu.Unlock()
		return &o
	}
	s.mu.Unlock()

	all, _ := s.orders.Load(ctx, scope.All)
	if i := models.IndexOf(all, id); i >= 0 {
		return &all[i]
	}
	return nil
}
