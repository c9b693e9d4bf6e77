package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ordersync/internal/dbx"
	"github.com/dmitrijs2005/ordersync/internal/server/repositories/orders"
)

// InMemoryRepositoryManager hands out one shared MemoryRepository and ignores
// the DBTX it is given. It has no schema.
type InMemoryRepositoryManager struct {
	orders *orders.MemoryRepository
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Orders(dbx.DBTX) orders.Repository {
	return m.orders
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return &InMemoryRepositoryManager{orders: orders.NewMemoryRepository()}
}
