package orders

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/ordersync/internal/common"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

// MemoryRepository keeps orders in a map. It backs the server's "memory"
// storage mode and the handler tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[string]models.Order)}
}

func (r *MemoryRepository) List(_ context.Context, deviceScope *string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if deviceScope != nil && o.OwnerDeviceID != *deviceScope {
			continue
		}
		result = append(result, o)
	}
	models.SortNewestFirst(result)
	return result, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return models.Order{}, common.ErrNotFound
	}
	return o, nil
}

func (r *MemoryRepository) Create(_ context.Context, order models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return common.ErrDuplicate
	}
	order.LineItems = append([]models.LineItem(nil), order.LineItems...)
	r.orders[order.ID] = order
	return nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id string, status models.Status) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return models.Order{}, common.ErrNotFound
	}
	o.Status = status
	r.orders[id] = o
	return o, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}
