package services

import (
	"context"

	"github.com/dmitrijs2005/ordersync/internal/client/cache"
	"github.com/dmitrijs2005/ordersync/internal/client/scope"
	"github.com/dmitrijs2005/ordersync/internal/logging"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

type PropagationReport struct {
	// Purged lists the scopes the order was removed from.
	Purged []scope.Key
	// Failed maps a scope to the error that kept the order in it.
	Failed map[string]error
}

// Found reports whether any scope held the order.
func (r PropagationReport) Found() bool {
	return len(r.Purged) > 0 || len(r.Failed) > 0
}

// Propagator removes a deleted order from every cached scope that may hold
// it. Each scope is handled on its own; one failure never stops the rest.
type Propagator struct {
	orders *cache.Cache[[]models.Order]
	log    logging.Logger
}

func NewPropagator(orders *cache.Cache[[]models.Order], log logging.Logger) *Propagator {
	return &Propagator{orders: orders, log: log.With("module", "propagator")}
}

func (p *Propagator) Propagate(ctx context.Context, id string, targets []scope.Key) PropagationReport {
	report := PropagationReport{Failed: map[string]error{}}
	seen := make(map[scope.Key]bool, len(targets))

	for _, key := range targets {
		if seen[key] {
			continue
		}
		seen[key] = true

		cached, st := p.orders.Load(ctx, key)
		if st == cache.Missing {
			continue
		}
		rest, found := models.Without(cached, id)
		if !found {
			continue
		}
		if err := p.orders.Save(ctx, key, rest); err != nil {
			p.log.Warn(ctx, "deleted order left in cache", "scope", key.String(), "order", id, "error", err)
			report.Failed[key.String()] = err
			continue
		}
		report.Purged = append(report.Purged, key)
	}

	if !report.Found() {
		p.log.Debug(ctx, "deleted order was not cached locally", "order", id)
	}
	return report
}
