// Package watcher polls the full order list for an administrator and
// reports orders that appeared since the previous poll.
package watcher

import "github.com/dmitrijs2005/ordersync/internal/models"

type State int

const (
	Inactive State = iota
	// BaselinePending: active, the next observation only records a baseline.
	BaselinePending
	Armed
)

func (s State) String() string {
	switch s {
	case BaselinePending:
		return "baseline-pending"
	case Armed:
		return "armed"
	default:
		return "inactive"
	}
}

// Step is the transition function of the detector. It consumes one
// observation of the full order list and returns the next state, the new
// baseline count and the orders to announce (nil when nothing is new).
//
// The first observation after activation only records the baseline. Later,
// a count above the baseline announces the delta most recently created
// orders; anything else silently moves the baseline.
func Step(state State, prevCount int, orders []models.Order) (State, int, []models.Order) {
	count := len(orders)
	switch state {
	case Inactive:
		return Inactive, prevCount, nil
	case BaselinePending:
		return Armed, count, nil
	}

	if count <= prevCount {
		return Armed, count, nil
	}

	sorted := append([]models.Order(nil), orders...)
	models.SortNewestFirst(sorted)
	return Armed, count, sorted[:count-prevCount]
}
