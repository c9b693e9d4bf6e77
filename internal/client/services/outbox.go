package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ordersync/internal/client/client"
	"github.com/dmitrijs2005/ordersync/internal/client/scope"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

// Orders created while the store was unreachable wait in the outbox
// collection, keyed by the scope they were created under. The next fetch
// replays them before listing, so the remote-wins overwrite that follows
// already includes them.

func (s *orderService) enqueue(ctx context.Context, key scope.Key, order models.Order) {
	queued, _ := s.outbox.Load(ctx, key)
	queued, _ = models.Without(queued, order.ID)
	if err := s.outbox.Save(ctx, key, append(queued, order)); err != nil {
		s.log.Error(ctx, "order not queued for replay", "order", order.ID, "error", err)
	}
}

// flushOutbox replays queued orders oldest first. It stops at the first
// unreachable error and returns it; rejected orders are dropped and logged.
func (s *orderService) flushOutbox(ctx context.Context) error {
	keys, err := s.outbox.Scopes(ctx)
	if err != nil {
		s.log.Warn(ctx, "cannot enumerate outbox", "error", err)
		return nil
	}

	for _, key := range keys {
		queued, _ := s.outbox.Load(ctx, key)
		remaining := queued[:0:0]

		var stop error
		for i, order := range queued {
			if stop != nil {
				remaining = append(remaining, queued[i:]...)
				break
			}
			_, err := s.client.CreateOrder(ctx, order)
			switch {
			case err == nil:
				s.log.Info(ctx, "queued order sent", "order", order.ID)
			case client.IsUnavailable(err):
				stop = err
				remaining = append(remaining, order)
			default:
				s.log.Warn(ctx, "queued order rejected by the store, dropping", "order", order.ID, "error", err)
			}
		}

		if len(remaining) == 0 {
			if err := s.outbox.Remove(ctx, key); err != nil {
				s.log.Warn(ctx, "outbox not cleared", "scope", key.String(), "error", err)
			}
		} else if err := s.outbox.Save(ctx, key, remaining); err != nil {
			s.log.Warn(ctx, "outbox not updated", "scope", key.String(), "error", err)
		}

		if stop != nil {
			return fmt.Errorf("replay queued orders: %w", stop)
		}
	}
	return nil
}

// dropQueued forgets a queued create for an order that no longer exists.
func (s *orderService) dropQueued(ctx context.Context, id string) {
	keys, err := s.outbox.Scopes(ctx)
	if err != nil {
		return
	}
	for _, key := range keys {
		queued, _ := s.outbox.Load(ctx, key)
		rest, found := models.Without(queued, id)
		if !found {
			continue
		}
		if len(rest) == 0 {
			_ = s.outbox.Remove(ctx, key)
		} else {
			_ = s.outbox.Save(ctx, key, rest)
		}
	}
}
