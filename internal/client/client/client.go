package client

import (
	"context"

	"github.com/dmitrijs2005/ordersync/internal/models"
)

// Client is the remote order store.
type Client interface {
	Ping(ctx context.Context) error
	// ListOrders returns every order when deviceScope is nil, otherwise the
	// orders owned by that device.
	ListOrders(ctx context.Context, deviceScope *string) ([]models.Order, error)
	CreateOrder(ctx context.Context, order models.Order) (models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.Status) (models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	// SetCredentials changes the identity sent with later requests.
	SetCredentials(deviceID, token string)
	Close() error
}
