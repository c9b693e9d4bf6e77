// Package services holds the order store's business rules between the HTTP
// handlers and the repositories.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ordersync/internal/common"
	"github.com/dmitrijs2005/ordersync/internal/logging"
	"github.com/dmitrijs2005/ordersync/internal/models"
	"github.com/dmitrijs2005/ordersync/internal/server/config"
	"github.com/dmitrijs2005/ordersync/internal/server/repositories/orders"
	"github.com/dmitrijs2005/ordersync/internal/server/repositories/repomanager"
)

// OrderService stores what clients send. Totals are checked, never
// recomputed; status changes are not restricted to the usual lifecycle.
type OrderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	log         logging.Logger
}

func NewOrderService(db *sql.DB, rm repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *OrderService {
	return &OrderService{db: db, repomanager: rm, config: cfg, log: log.With("module", "orders")}
}

func (s *OrderService) repo() orders.Repository {
	return s.repomanager.Orders(s.db)
}

// List returns every order, or only those owned by deviceScope. Scoped
// listing fails with common.ErrScopeFilter when the filter is switched off.
func (s *OrderService) List(ctx context.Context, deviceScope *string) ([]models.Order, error) {
	if deviceScope != nil && !s.config.ScopeFilter {
		return nil, common.ErrScopeFilter
	}
	return s.repo().List(ctx, deviceScope)
}

func (s *OrderService) Get(ctx context.Context, id string) (models.Order, error) {
	return s.repo().Get(ctx, id)
}

// Create stores order as sent. A missing status means pending; a missing
// owner is filled from the caller's device header.
func (s *OrderService) Create(ctx context.Context, order models.Order, callerDevice string) (models.Order, error) {
	if order.Status == "" {
		order.Status = models.StatusPending
	}
	if order.OwnerDeviceID == "" {
		order.OwnerDeviceID = callerDevice
	}

	if err := order.Validate(); err != nil {
		return models.Order{}, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if !order.Status.Valid() {
		return models.Order{}, fmt.Errorf("%w: unknown status %q", common.ErrValidation, order.Status)
	}
	if !order.PaymentMethod.Valid() {
		return models.Order{}, fmt.Errorf("%w: unknown payment method %q", common.ErrValidation, order.PaymentMethod)
	}

	if err := s.repo().Create(ctx, order); err != nil {
		return models.Order{}, err
	}
	s.log.Info(ctx, "order created", "order", order.ID, "owner", order.OwnerDeviceID, "total", order.FinalTotal.String())
	return order, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.Status) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, fmt.Errorf("%w: unknown status %q", common.ErrValidation, status)
	}

	o, err := s.repo().UpdateStatus(ctx, id, status)
	if err != nil {
		return models.Order{}, err
	}
	s.log.Info(ctx, "order status changed", "order", id, "status", string(status))
	return o, nil
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.repo().Delete(ctx, id); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.log.Error(ctx, "delete order", "order", id, "error", err)
		}
		return err
	}
	s.log.Info(ctx, "order deleted", "order", id)
	return nil
}
