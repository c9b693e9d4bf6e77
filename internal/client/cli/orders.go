package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ordersync/internal/client/services"
	"github.com/dmitrijs2005/ordersync/internal/client/watcher"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

var ErrAdminOnly = errors.New("admin session required")

func (a *App) ListOrders(ctx context.Context, all bool) error {
	res, err := a.orders.FetchOrders(ctx, services.FetchOptions{All: all})
	if err != nil {
		return err
	}
	if res.Degraded {
		fmt.Fprintln(a.out, "Warning:", res.Warning)
	}
	printOrders(a.out, res.Orders)
	return nil
}

// SetStatus takes "<order-id> <status>". Transitions outside the usual
// lifecycle are allowed but reported.
func (a *App) SetStatus(ctx context.Context, args []string) error {
	if !a.isAdmin() {
		return ErrAdminOnly
	}
	id, next := args[0], models.Status(args[1])
	if !next.Valid() {
		return fmt.Errorf("unknown status %q", next)
	}

	orders := a.orders.Orders()
	if i := models.IndexOf(orders, id); i >= 0 && !orders[i].Status.CanTransitionTo(next) {
		fmt.Fprintf(a.out, "Warning: %s -> %s is not a regular transition\n", orders[i].Status, next)
	}

	o, err := a.orders.UpdateOrderStatus(ctx, id, next)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s is now %s\n", o.ID, o.Status)
	return nil
}

func (a *App) DeleteOrder(ctx context.Context, args []string) error {
	if !a.isAdmin() {
		return ErrAdminOnly
	}

	report, err := a.orders.DeleteOrder(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Order %s deleted, removed from %d cached scope(s)\n", args[0], len(report.Purged))
	for key, ferr := range report.Failed {
		fmt.Fprintf(a.out, "Warning: cache %s still holds the order: %v\n", key, ferr)
	}
	return nil
}

// Watch starts polling for orders placed by anyone.
func (a *App) Watch(ctx context.Context) error {
	if !a.isAdmin() {
		return ErrAdminOnly
	}
	a.detector.Activate(ctx)
	if a.config != nil && a.config.PollInterval <= 0 {
		fmt.Fprintln(a.out, "Polling is disabled (-p 0); watcher armed without a background loop")
		return nil
	}
	fmt.Fprintln(a.out, "Watching for new orders")
	return nil
}

func (a *App) Unwatch(ctx context.Context) error {
	a.detector.Deactivate()
	fmt.Fprintln(a.out, "Stopped watching")
	return nil
}

// notify rings the terminal bell and lists the orders that just arrived.
func (a *App) notify(_ context.Context, n watcher.Notification) {
	fmt.Fprintf(a.out, "\a\n%d new order(s), %d in total:\n", len(n.NewOrders), n.Total)
	printOrders(a.out, n.NewOrders)
}
