package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dmitrijs2005/ordersync/internal/client/services"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

func (a *App) ShowCart(ctx context.Context) error {
	printCart(a.out, a.cart.Get(ctx))
	return nil
}

// AddToCart takes "add <product-id> <unit-price> [quantity] [name...]" and
// prompts for whatever is missing.
func (a *App) AddToCart(ctx context.Context, args []string) error {
	item, err := a.readCartItem(args)
	if err != nil {
		return err
	}
	c, err := a.cart.Add(ctx, item)
	if err != nil {
		return err
	}
	printCart(a.out, c)
	return nil
}

func (a *App) readCartItem(args []string) (models.CartItem, error) {
	var (
		item models.CartItem
		err  error
	)

	next := func(prompt string) (string, error) {
		if len(args) > 0 {
			v := args[0]
			args = args[1:]
			return v, nil
		}
		return GetSimpleText(a.reader, prompt, a.out)
	}

	if item.ProductID, err = next("Product id"); err != nil {
		return item, err
	}
	if item.ProductID == "" {
		return item, fmt.Errorf("product id is required")
	}

	price, err := next("Unit price")
	if err != nil {
		return item, err
	}
	if item.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return item, fmt.Errorf("unit price %q: %w", price, err)
	}

	qty := "1"
	if len(args) > 0 {
		qty, args = args[0], args[1:]
	}
	if item.Quantity, err = strconv.Atoi(qty); err != nil || item.Quantity <= 0 {
		return item, fmt.Errorf("quantity %q must be a positive number", qty)
	}

	if len(args) > 0 {
		item.Name = strings.Join(args, " ")
	} else if item.Name, err = GetTextOr(a.reader, "Product name", item.ProductID, a.out); err != nil {
		return item, err
	}
	return item, nil
}

func (a *App) RemoveFromCart(ctx context.Context, args []string) error {
	var id string
	if len(args) > 0 {
		id = args[0]
	} else {
		var err error
		if id, err = GetSimpleText(a.reader, "Product id to remove", a.out); err != nil {
			return err
		}
	}

	c, err := a.cart.Remove(ctx, id)
	if err != nil {
		return err
	}
	printCart(a.out, c)
	return nil
}

// Checkout asks for the contact details and places the order.
func (a *App) Checkout(ctx context.Context) error {
	if a.cart.Get(ctx).Empty() {
		return services.ErrEmptyCart
	}

	var (
		req    services.CheckoutRequest
		err    error
		method string
		disc   string
	)
	fallbackEmail := a.session.Current().Email()

	prompts := []struct {
		prompt, fallback string
		dst              *string
	}{
		{"Name", "", &req.Contact.Name},
		{"Phone", "", &req.Contact.Phone},
		{"Email", fallbackEmail, &req.Contact.Email},
		{"Address", "", &req.Contact.Address},
		{"Note", "", &req.Contact.Note},
		{"Payment method (cash_on_delivery, bank_transfer)", string(models.PaymentCashOnDelivery), &method},
		{"Coupon code", "", &req.CouponCode},
		{"Discount amount", "0", &disc},
	}
	for _, p := range prompts {
		if *p.dst, err = GetTextOr(a.reader, p.prompt, p.fallback, a.out); err != nil {
			return err
		}
	}

	req.PaymentMethod = models.PaymentMethod(method)
	if req.DiscountAmount, err = decimal.NewFromString(disc); err != nil {
		return fmt.Errorf("discount %q: %w", disc, err)
	}

	res, err := a.cart.Checkout(ctx, req)
	if err != nil {
		return err
	}
	if res.Degraded {
		fmt.Fprintln(a.out, "Warning:", res.Warning)
	}
	fmt.Fprintf(a.out, "Order %s placed, total %s\n", res.Order.ID, res.Order.FinalTotal.StringFixed(2))
	return nil
}
