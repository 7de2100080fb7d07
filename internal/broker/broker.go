// Package broker defines the Broker interface and provides implementations
// for executing orders: an in-memory simulator for backtests and paper
// trading, and a live implementation backed by the Alpaca trading API.
package broker

import (
	"context"

	"quantra/internal/account"
	"quantra/internal/domain"
)

// Broker places orders and keeps the account in sync with the brokerage.
type Broker interface {
	// PlaceOrders submits new orders, modifications, and cancellations. An
	// order with an ID updates the existing order at the broker; a zero size
	// cancels it.
	PlaceOrders(ctx context.Context, orders []domain.Order) error

	// Sync processes the latest event and returns a fresh account snapshot.
	// A nil event syncs without new market data.
	Sync(ctx context.Context, event *domain.Event) (*account.Account, error)
}
