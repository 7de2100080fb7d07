// Package account models the trading account: positions, multi-currency
// cash, buying power, and open orders, together with the derived metrics
// (equity, market value, unrealized P&L) the risk engine works from.
//
// The account is a snapshot. Only a broker creates or replaces it, during
// its Sync; the trader receives it read-only per event.
package account

import (
	"time"

	"github.com/shopspring/decimal"

	"quantra/internal/domain"
	"quantra/internal/money"
)

// Position is the holding of a single symbol.
type Position struct {
	// Size is the signed position size; negative for short positions.
	Size decimal.Decimal
	// AvgPrice is the average price paid, denoted in the currency of the
	// symbol.
	AvgPrice float64
	// MktPrice is the latest known market price, denoted in the currency of
	// the symbol.
	MktPrice float64
}

// IsLong reports whether the position size is positive.
func (p Position) IsLong() bool { return p.Size.IsPositive() }

// IsShort reports whether the position size is negative.
func (p Position) IsShort() bool { return p.Size.IsNegative() }

// Account is a trading account. Monetary metrics are denoted in the base
// currency; cash may be held in multiple currencies and is converted on
// demand through the configured money converter.
type Account struct {
	// BuyingPower is the capital available for new orders, denoted in the
	// base currency.
	BuyingPower float64
	// Cash holds the settled cash balances per currency.
	Cash money.Wallet
	// Positions maps symbol to its open position. Symbols with a zero size
	// are pruned by the broker.
	Positions map[string]Position
	// Orders holds the orders known to the broker, including closed ones.
	Orders []domain.Order
	// LastUpdate is the time of the last broker sync; conversions use it.
	LastUpdate time.Time

	base      money.Currency
	conv      money.Converter
	contracts ContractConverter
}

// New creates an empty account with the given base currency, money
// converter, and contract converter. A nil converter disables cross-currency
// conversion (NoConversion); a nil contract converter means a 1.0 rate for
// every symbol.
func New(base money.Currency, conv money.Converter, contracts ContractConverter) *Account {
	if conv == nil {
		conv = money.NoConversion{}
	}
	return &Account{
		Cash:       money.Wallet{},
		Positions:  map[string]Position{},
		LastUpdate: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		base:       base,
		conv:       conv,
		contracts:  contracts,
	}
}

// Base returns the base currency of the account.
func (a *Account) Base() money.Currency { return a.base }

// Converter returns the money converter of the account.
func (a *Account) Converter() money.Converter { return a.conv }

// Contracts returns the contract converter of the account, possibly nil.
func (a *Account) Contracts() ContractConverter { return a.contracts }

// ContractValue returns the value of the provided contract size at the given
// price, denoted in the base currency of the account.
func (a *Account) ContractValue(symbol string, size decimal.Decimal, price float64) (float64, error) {
	rate := 1.0
	if a.contracts != nil {
		var err error
		rate, err = a.contracts.Rate(symbol, a.LastUpdate)
		if err != nil {
			return 0, err
		}
	}
	value, _ := size.Float64()
	return value * price * rate, nil
}

// MktValue returns the summed market value of the open positions, denoted in
// the base currency.
func (a *Account) MktValue() (float64, error) {
	total := 0.0
	for symbol, pos := range a.Positions {
		v, err := a.ContractValue(symbol, pos.Size, pos.MktPrice)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// PositionValue returns the market value of the position in a symbol, or 0
// when there is none.
func (a *Account) PositionValue(symbol string) (float64, error) {
	pos, ok := a.Positions[symbol]
	if !ok {
		return 0, nil
	}
	return a.ContractValue(symbol, pos.Size, pos.MktPrice)
}

// UnrealizedPNL returns the summed unrealized profit and loss of the open
// positions, denoted in the base currency.
func (a *Account) UnrealizedPNL() (float64, error) {
	total := 0.0
	for symbol, pos := range a.Positions {
		v, err := a.ContractValue(symbol, pos.Size, pos.MktPrice-pos.AvgPrice)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

// Equity returns the total value of the account: cash converted to the base
// currency plus the market value of all open positions.
func (a *Account) Equity() (float64, error) {
	cash, err := a.Cash.ConvertTo(a.conv, a.base, a.LastUpdate)
	if err != nil {
		return 0, err
	}
	mkt, err := a.MktValue()
	if err != nil {
		return 0, err
	}
	return cash + mkt, nil
}

// GetPositionSize returns the signed position size for a symbol, zero when
// there is no position.
func (a *Account) GetPositionSize(symbol string) decimal.Decimal {
	if pos, ok := a.Positions[symbol]; ok {
		return pos.Size
	}
	return decimal.Zero
}

// HasOpenOrder reports whether at least one open order exists for the symbol.
func (a *Account) HasOpenOrder(symbol string) bool {
	for _, o := range a.Orders {
		if o.Symbol == symbol && o.IsOpen() {
			return true
		}
	}
	return false
}

// OpenOrders returns the orders that are still working at the broker.
func (a *Account) OpenOrders() []domain.Order {
	var result []domain.Order
	for _, o := range a.Orders {
		if o.IsOpen() {
			result = append(result, o)
		}
	}
	return result
}
