// Package models defines the order, cart and identity types shared by the
// client synchronization layer and the reference order store. JSON tags are
// the wire format of the remote store.
package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidOrder = errors.New("invalid order")

// PaymentMethod is how the shopper intends to pay.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCashOnDelivery || p == PaymentBankTransfer
}

// LineItem is a snapshot of a product taken when the order was created.
// It is never re-derived from the current catalog.
type LineItem struct {
	ProductID         string          `json:"productId"`
	NameSnapshot      string          `json:"nameSnapshot"`
	UnitPriceSnapshot decimal.Decimal `json:"unitPriceSnapshot"`
	Quantity          int             `json:"quantity"`
	ImageSnapshot     string          `json:"imageSnapshot,omitempty"`
}

// Total is unit price times quantity.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPriceSnapshot.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type CustomerContact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
	Note    string `json:"note,omitempty"`
}

// Order is an immutable receipt apart from its Status.
//
// FinalTotal = Subtotal - DiscountAmount holds at creation and is never
// recomputed afterwards. OwnerDeviceID may be empty on legacy records; the
// contact email is the fallback join key then.
type Order struct {
	ID             string          `json:"id"`
	LineItems      []LineItem      `json:"lineItems"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalTotal     decimal.Decimal `json:"finalTotal"`
	CouponCode     string          `json:"couponCode,omitempty"`
	Contact        CustomerContact `json:"customerContact"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	Status         Status          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	OwnerDeviceID  string          `json:"ownerDeviceId,omitempty"`
}

// OrderDraft is everything a checkout supplies before an order exists.
type OrderDraft struct {
	Items          []LineItem
	DiscountAmount decimal.Decimal
	CouponCode     string
	Contact        CustomerContact
	PaymentMethod  PaymentMethod
}

// NewOrder turns a draft into a Pending order with a fresh ID and totals
// computed once, here.
func NewOrder(d OrderDraft, now time.Time) (Order, error) {
	if len(d.Items) == 0 {
		return Order{}, fmt.Errorf("%w: no line items", ErrInvalidOrder)
	}
	if !d.PaymentMethod.Valid() {
		return Order{}, fmt.Errorf("%w: unknown payment method %q", ErrInvalidOrder, d.PaymentMethod)
	}

	subtotal := decimal.Zero
	items := make([]LineItem, len(d.Items))
	for i, item := range d.Items {
		if item.Quantity <= 0 {
			return Order{}, fmt.Errorf("%w: quantity for %s must be positive", ErrInvalidOrder, item.ProductID)
		}
		if item.UnitPriceSnapshot.IsNegative() {
			return Order{}, fmt.Errorf("%w: negative price for %s", ErrInvalidOrder, item.ProductID)
		}
		items[i] = item
		subtotal = subtotal.Add(item.Total())
	}

	if d.DiscountAmount.IsNegative() {
		return Order{}, fmt.Errorf("%w: negative discount", ErrInvalidOrder)
	}
	if d.DiscountAmount.GreaterThan(subtotal) {
		return Order{}, fmt.Errorf("%w: discount %s exceeds subtotal %s", ErrInvalidOrder, d.DiscountAmount, subtotal)
	}

	return Order{
		ID:             NewOrderID(now),
		LineItems:      items,
		Subtotal:       subtotal,
		DiscountAmount: d.DiscountAmount,
		FinalTotal:     subtotal.Sub(d.DiscountAmount),
		CouponCode:     d.CouponCode,
		Contact:        d.Contact,
		PaymentMethod:  d.PaymentMethod,
		Status:         StatusPending,
		CreatedAt:      now.UTC(),
	}, nil
}

// NewOrderID returns a client-generated, globally unique order id.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(uuid.NewString()[:8]))
}

// TotalsConsistent reports whether FinalTotal = Subtotal - DiscountAmount.
func (o Order) TotalsConsistent() bool {
	return o.FinalTotal.Equal(o.Subtotal.Sub(o.DiscountAmount))
}

// Validate checks what must hold for an order to be submitted.
func (o Order) Validate() error {
	switch {
	case o.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidOrder)
	case len(o.LineItems) == 0:
		return fmt.Errorf("%w: no line items", ErrInvalidOrder)
	case !o.TotalsConsistent():
		return fmt.Errorf("%w: final total %s != %s - %s", ErrInvalidOrder, o.FinalTotal, o.Subtotal, o.DiscountAmount)
	case o.CreatedAt.IsZero():
		return fmt.Errorf("%w: missing creation time", ErrInvalidOrder)
	}
	return nil
}

// SortNewestFirst orders by CreatedAt descending, ties broken by ID so the
// result is deterministic.
func SortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

// IndexOf returns the position of the order with the given id, or -1.
func IndexOf(orders []Order, id string) int {
	for i := range orders {
		if orders[i].ID == id {
			return i
		}
	}
	return -1
}

// Without returns orders minus the one with the given id and whether it was
// present. The input slice is not modified.
func Without(orders []Order, id string) ([]Order, bool) {
	i := IndexOf(orders, id)
	if i < 0 {
		return orders, false
	}
	out := make([]Order, 0, len(orders)-1)
	out = append(out, orders[:i]...)
	return append(out, orders[i+1:]...), true
}
