// Package orders persists the order store's records.
//
// The full order travels as a JSON document; id, owner, email, status and
// creation time are mirrored into columns for filtering and ordering. The
// status column is authoritative.
package orders

import (
	"context"

	"github.com/dmitrijs2005/ordersync/internal/models"
)

// Repository is implemented by PostgresRepository and MemoryRepository.
//
// List returns newest first. A non-nil deviceScope keeps only orders whose
// owner device matches it. Get, UpdateStatus and Delete report
// common.ErrNotFound for unknown ids; Create reports common.ErrDuplicate for
// an id that already exists.
type Repository interface {
	List(ctx context.Context, deviceScope *string) ([]models.Order, error)
	Get(ctx context.Context, id string) (models.Order, error)
	Create(ctx context.Context, order models.Order) error
	UpdateStatus(ctx context.Context, id string, status models.Status) (models.Order, error)
	Delete(ctx context.Context, id string) error
}
