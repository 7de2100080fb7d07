package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. The broker owns all
// transitions; the trader only ever creates orders in StatusNew.
type OrderStatus string

const (
	StatusNew       OrderStatus = "new"
	StatusOpen      OrderStatus = "open"
	StatusFilled    OrderStatus = "filled"
	StatusCancelled OrderStatus = "cancelled"
	StatusExpired   OrderStatus = "expired"
)

// Closed reports whether the status is terminal.
func (s OrderStatus) Closed() bool {
	return s == StatusFilled || s == StatusCancelled || s == StatusExpired
}

// Order is a trading order. The size is signed: positive for buy, negative
// for sell. A zero limit denotes a market order; a limit order may carry a
// good-till-date after which the broker expires it.
//
// The ID is assigned by the broker when the order is placed and must not be
// set by the creator. Fill is likewise maintained by the broker.
type Order struct {
	ID     string
	Symbol string
	Size   decimal.Decimal
	Limit  float64
	GTD    time.Time
	Fill   decimal.Decimal
	Status OrderStatus
}

// NewOrder creates a market order for the given signed size.
func NewOrder(symbol string, size decimal.Decimal) Order {
	return Order{Symbol: symbol, Size: size, Status: StatusNew}
}

// NewLimitOrder creates a limit order with an optional good-till-date. A
// zero gtd means the order rests until filled or cancelled.
func NewLimitOrder(symbol string, size decimal.Decimal, limit float64, gtd time.Time) Order {
	return Order{Symbol: symbol, Size: size, Limit: limit, GTD: gtd, Status: StatusNew}
}

// Cancel returns a cancellation order for this order: same ID, size forced
// to zero. Only orders that already have an ID can be cancelled.
func (o Order) Cancel() Order {
	result := o
	result.Size = decimal.Zero
	return result
}

// Modify returns an update order with a new size and/or limit and the same
// ID. A zero size is not a valid modification; use Cancel instead.
func (o Order) Modify(size decimal.Decimal, limit float64) Order {
	result := o
	if !size.IsZero() {
		result.Size = size
	}
	if limit != 0 {
		result.Limit = limit
	}
	return result
}

// IsCancellation reports whether this order cancels an existing order.
func (o Order) IsCancellation() bool { return o.Size.IsZero() }

// IsBuy reports whether this is a buy order.
func (o Order) IsBuy() bool { return o.Size.IsPositive() }

// IsSell reports whether this is a sell order.
func (o Order) IsSell() bool { return o.Size.IsNegative() }

// IsMarket reports whether this is a market order.
func (o Order) IsMarket() bool { return o.Limit == 0 }

// IsOpen reports whether the order is still working at the broker.
func (o Order) IsOpen() bool {
	return o.Status == StatusNew || o.Status == StatusOpen
}

// Remaining returns the unfilled part of the order size. For sell orders the
// remaining size is negative.
func (o Order) Remaining() decimal.Decimal {
	return o.Size.Sub(o.Fill)
}

func (o Order) String() string {
	if o.IsMarket() {
		return fmt.Sprintf("%s@%s", o.Size, o.Symbol)
	}
	return fmt.Sprintf("%s@%s limit=%.2f", o.Size, o.Symbol, o.Limit)
}
