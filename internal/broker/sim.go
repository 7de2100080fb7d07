package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"quantra/internal/account"
	"quantra/internal/domain"
	"quantra/internal/money"
)

// Compile-time interface check.
var _ Broker = (*SimBroker)(nil)

// SimBroker simulates a brokerage in memory for paper trading and
// backtesting. Market orders fill completely at the next known price; limit
// orders fill when the price crosses the limit. Orders with a good-till-date
// expire once the event time moves past it.
//
// The simulation keeps cash per currency, so multi-currency backtests work
// as long as the account's money converter covers the currencies involved.
type SimBroker struct {
	acc    *account.Account
	prices map[string]float64
	log    *slog.Logger

	// priceType selects the fill price from incoming items.
	priceType domain.PriceType
}

// NewSimBroker creates a simulated broker with the given initial cash
// deposit. The converter and contract converter may be nil for
// single-currency equity backtests.
func NewSimBroker(deposit money.Amount, conv money.Converter, contracts account.ContractConverter) *SimBroker {
	acc := account.New(deposit.Currency, conv, contracts)
	acc.Cash.AddAmount(deposit)
	return &SimBroker{
		acc:       acc,
		prices:    map[string]float64{},
		log:       slog.Default().With("broker", "sim"),
		priceType: domain.PriceDefault,
	}
}

// PlaceOrders registers the orders with the simulation. New orders get a
// fresh ID; orders carrying an ID modify or cancel the matching open order.
func (b *SimBroker) PlaceOrders(_ context.Context, orders []domain.Order) error {
	for _, order := range orders {
		if order.ID == "" {
			if order.IsCancellation() {
				return fmt.Errorf("sim: cannot cancel an order without an ID")
			}
			order.ID = uuid.NewString()
			order.Status = domain.StatusOpen
			b.acc.Orders = append(b.acc.Orders, order)
			continue
		}

		idx := b.findOrder(order.ID)
		if idx < 0 || !b.acc.Orders[idx].IsOpen() {
			return fmt.Errorf("sim: no open order with id %s", order.ID)
		}
		if order.IsCancellation() {
			b.acc.Orders[idx].Status = domain.StatusCancelled
		} else {
			b.acc.Orders[idx].Size = order.Size
			b.acc.Orders[idx].Limit = order.Limit
		}
	}
	return nil
}

func (b *SimBroker) findOrder(id string) int {
	for i, o := range b.acc.Orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// fillPrice returns the price an open order would fill at, or false when no
// fill is possible.
func (b *SimBroker) fillPrice(o domain.Order) (float64, bool) {
	price, ok := b.prices[o.Symbol]
	if !ok {
		return 0, false
	}
	if o.IsMarket() {
		return price, true
	}
	// Limit fills at the limit price when the market crosses it.
	if o.IsBuy() && price <= o.Limit {
		return o.Limit, true
	}
	if o.IsSell() && price >= o.Limit {
		return o.Limit, true
	}
	return 0, false
}

// execute applies a fill to cash and positions.
func (b *SimBroker) execute(o domain.Order, price float64) error {
	size := o.Remaining()
	value, err := b.acc.ContractValue(o.Symbol, size, price)
	if err != nil {
		return err
	}
	b.acc.Cash.SubAmount(b.acc.Base().Amount(value))

	pos, ok := b.acc.Positions[o.Symbol]
	if !ok {
		b.acc.Positions[o.Symbol] = account.Position{Size: size, AvgPrice: price, MktPrice: price}
		return nil
	}

	newSize := pos.Size.Add(size)
	switch {
	case newSize.IsZero():
		delete(b.acc.Positions, o.Symbol)
	case pos.Size.Sign() == size.Sign():
		// Increasing the position updates the weighted average price.
		oldValue, _ := pos.Size.Float64()
		addValue, _ := size.Float64()
		totalValue, _ := newSize.Float64()
		pos.AvgPrice = (oldValue*pos.AvgPrice + addValue*price) / totalValue
		pos.Size = newSize
		pos.MktPrice = price
		b.acc.Positions[o.Symbol] = pos
	default:
		// Reducing keeps the average price; flipping through zero starts a
		// new position at the fill price.
		if newSize.Sign() != pos.Size.Sign() {
			pos.AvgPrice = price
		}
		pos.Size = newSize
		pos.MktPrice = price
		b.acc.Positions[o.Symbol] = pos
	}
	return nil
}

// Sync advances the simulation with the latest event and returns a snapshot
// of the account.
func (b *SimBroker) Sync(_ context.Context, event *domain.Event) (*account.Account, error) {
	now := time.Now().UTC()
	if event != nil {
		now = event.Time
		for symbol, item := range event.PriceItems() {
			b.prices[symbol] = item.Price(b.priceType)
		}
	}

	for i := range b.acc.Orders {
		o := &b.acc.Orders[i]
		if !o.IsOpen() {
			continue
		}
		if !o.GTD.IsZero() && now.After(o.GTD) {
			o.Status = domain.StatusExpired
			b.log.Debug("order expired", "order", o.String(), "gtd", o.GTD)
			continue
		}
		price, ok := b.fillPrice(*o)
		if !ok {
			continue
		}
		if err := b.execute(*o, price); err != nil {
			return nil, err
		}
		o.Fill = o.Size
		o.Status = domain.StatusFilled
		b.log.Debug("order filled", "order", o.String(), "price", price)
	}

	// Mark positions to the latest prices.
	for symbol, pos := range b.acc.Positions {
		if price, ok := b.prices[symbol]; ok {
			pos.MktPrice = price
			b.acc.Positions[symbol] = pos
		}
	}

	b.acc.LastUpdate = now
	cash, err := b.acc.Cash.ConvertTo(b.acc.Converter(), b.acc.Base(), now)
	if err != nil {
		return nil, err
	}
	b.acc.BuyingPower = cash

	return b.snapshot(), nil
}

// snapshot returns a copy of the account safe to hand to the trader.
func (b *SimBroker) snapshot() *account.Account {
	acc := account.New(b.acc.Base(), b.acc.Converter(), b.acc.Contracts())
	acc.BuyingPower = b.acc.BuyingPower
	acc.Cash = b.acc.Cash.Clone()
	acc.LastUpdate = b.acc.LastUpdate
	for symbol, pos := range b.acc.Positions {
		acc.Positions[symbol] = pos
	}
	acc.Orders = append([]domain.Order(nil), b.acc.Orders...)
	return acc
}

// Deposit adds cash to the simulated account, e.g. to model dividends or
// interim funding during a backtest.
func (b *SimBroker) Deposit(amount money.Amount) {
	b.acc.Cash.AddAmount(amount)
}
