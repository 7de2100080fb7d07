// Package trader converts signals into orders, applying the position sizing
// and risk rules of the account.
package trader

import (
	"quantra/internal/account"
	"quantra/internal/domain"
)

// Trader turns the signals of an event into orders, given the latest account
// state. Implementations must treat the account as read-only.
type Trader interface {
	CreateOrders(signals []domain.Signal, event *domain.Event, acc *account.Account) ([]domain.Order, error)
}
