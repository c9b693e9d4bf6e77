package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/ordersync/internal/client/cache"
	"github.com/dmitrijs2005/ordersync/internal/client/scope"
	"github.com/dmitrijs2005/ordersync/internal/logging"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

const CartCollection = "cart"

var ErrEmptyCart = errors.New("cart is empty")

type OrderCreator interface {
	CreateOrder(ctx context.Context, order models.Order) (CreateResult, error)
}

type CheckoutRequest struct {
	Contact        models.CustomerContact
	PaymentMethod  models.PaymentMethod
	DiscountAmount decimal.Decimal
	CouponCode     string
}

// CartService keeps the shopper's cart in the scoped cache of the resolved
// scope.
type CartService interface {
	Get(ctx context.Context) models.Cart
	Add(ctx context.Context, item models.CartItem) (models.Cart, error)
	SetQuantity(ctx context.Context, productID string, qty int) (models.Cart, error)
	Remove(ctx context.Context, productID string) (models.Cart, error)
	Clear(ctx context.Context) error
	Checkout(ctx context.Context, req CheckoutRequest) (CreateResult, error)
	AdoptGuestCart(ctx context.Context) (models.Cart, error)
}

type cartService struct {
	carts  *cache.Cache[models.Cart]
	ids    IdentitySource
	orders OrderCreator
	log    logging.Logger
	now    func() time.Time
}

func NewCartService(store cache.Store, ids IdentitySource, orders OrderCreator, log logging.Logger) CartService {
	return &cartService{
		carts:  cache.New[models.Cart](store, CartCollection, log),
		ids:    ids,
		orders: orders,
		log:    log.With("module", "cart"),
		now:    time.Now,
	}
}

func (s *cartService) key() scope.Key {
	return scope.Resolve(s.ids.Current())
}

func (s *cartService) Get(ctx context.Context) models.Cart {
	c, _ := s.carts.Load(ctx, s.key())
	return c
}

func (s *cartService) save(ctx context.Context, c models.Cart) (models.Cart, error) {
	if err := s.carts.Save(ctx, s.key(), c); err != nil {
		return c, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

func (s *cartService) Add(ctx context.Context, item models.CartItem) (models.Cart, error) {
	if item.ProductID == "" || item.Quantity <= 0 {
		return models.Cart{}, fmt.Errorf("add to cart: product id and a positive quantity are required")
	}
	if item.UnitPrice.IsNegative() {
		return models.Cart{}, fmt.Errorf("add to cart: negative price")
	}
	return s.save(ctx, s.Get(ctx).Add(item))
}

func (s *cartService) SetQuantity(ctx context.Context, productID string, qty int) (models.Cart, error) {
	return s.save(ctx, s.Get(ctx).SetQuantity(productID, qty))
}

func (s *cartService) Remove(ctx context.Context, productID string) (models.Cart, error) {
	return s.SetQuantity(ctx, productID, 0)
}

func (s *cartService) Clear(ctx context.Context) error {
	return s.carts.Remove(ctx, s.key())
}

// Checkout freezes the cart into an order and submits it. The cart is
// emptied once the order is placed, degraded placement included.
func (s *cartService) Checkout(ctx context.Context, req CheckoutRequest) (CreateResult, error) {
	c := s.Get(ctx)
	if c.Empty() {
		return CreateResult{}, ErrEmptyCart
	}

	order, err := models.NewOrder(models.OrderDraft{
		Items:          c.Snapshot(),
		DiscountAmount: req.DiscountAmount,
		CouponCode:     req.CouponCode,
		Contact:        req.Contact,
		PaymentMethod:  req.PaymentMethod,
	}, s.now())
	if err != nil {
		return CreateResult{}, err
	}

	res, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		return CreateResult{}, err
	}
	if err := s.Clear(ctx); err != nil {
		s.log.Warn(ctx, "cart not cleared after checkout", "order", res.Order.ID, "error", err)
	}
	return res, nil
}

// AdoptGuestCart merges a cart left under the guest scope into the resolved
// scope and removes the guest copy.
func (s *cartService) AdoptGuestCart(ctx context.Context) (models.Cart, error) {
	key := s.key()
	current, _ := s.carts.Load(ctx, key)
	if key == scope.Guest {
		return current, nil
	}

	guest, st := s.carts.Load(ctx, scope.Guest)
	if st == cache.Missing || guest.Empty() {
		return current, nil
	}

	merged := current.Merge(guest)
	if err := s.carts.Save(ctx, key, merged); err != nil {
		return current, fmt.Errorf("adopt guest cart: %w", err)
	}
	if err := s.carts.Remove(ctx, scope.Guest); err != nil {
		s.log.Warn(ctx, "guest cart not removed", "error", err)
	}
	s.log.Info(ctx, "guest cart adopted", "items", len(guest.Items))
	return merged, nil
}
