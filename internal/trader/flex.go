package trader

import (
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"quantra/internal/account"
	"quantra/internal/domain"
)

// Compile-time interface check.
var _ Trader = (*FlexTrader)(nil)

// positionChange classifies the effect an order direction would have on an
// existing position.
type positionChange int

const (
	entryLong positionChange = iota
	entryShort
	exitLong
	exitShort
)

func (pc positionChange) isEntry() bool { return pc == entryLong || pc == entryShort }
func (pc positionChange) isExit() bool  { return pc == exitLong || pc == exitShort }

func (pc positionChange) String() string {
	switch pc {
	case entryLong:
		return "ENTRY_LONG"
	case entryShort:
		return "ENTRY_SHORT"
	case exitLong:
		return "EXIT_LONG"
	default:
		return "EXIT_SHORT"
	}
}

// changeFor determines the kind of change a buy or sell would have on a
// position of the given signed size.
func changeFor(isBuy bool, posSize decimal.Decimal) positionChange {
	switch {
	case posSize.IsZero():
		if isBuy {
			return entryLong
		}
		return entryShort
	case posSize.IsPositive():
		if isBuy {
			return entryLong
		}
		return exitLong
	default:
		if isBuy {
			return exitShort
		}
		return entryShort
	}
}

// FlexConfig holds the tunable rules of a FlexTrader. The zero value is not
// usable; start from DefaultFlexConfig.
type FlexConfig struct {
	// OneOrderOnly skips signals for symbols that already have an open order.
	OneOrderOnly bool
	// SizeFractions is the number of decimals allowed in order sizes; 0 means
	// whole sizes only.
	SizeFractions int32
	// SafetyMarginPerc is the fraction of equity kept out of the buying power
	// to avoid margin calls.
	SafetyMarginPerc float64
	// Shorting allows orders that could open a short position.
	Shorting bool
	// MaxOrderPerc caps a single new order at this fraction of equity.
	MaxOrderPerc float64
	// MinOrderPerc discards new orders below this fraction of equity.
	MinOrderPerc float64
	// MaxPositionPerc caps the total position in a symbol at this fraction of
	// equity.
	MaxPositionPerc float64
	// PriceType selects the price used for valuing orders.
	PriceType domain.PriceType
	// ShuffleSignals randomizes the order in which signals compete for the
	// available buying power.
	ShuffleSignals bool
}

// DefaultFlexConfig returns the default trading rules: one order per symbol,
// whole order sizes, a 5% safety margin, no shorting, orders between 2% and
// 5% of equity, and positions capped at 10% of equity.
func DefaultFlexConfig() FlexConfig {
	return FlexConfig{
		OneOrderOnly:     true,
		SizeFractions:    0,
		SafetyMarginPerc: 0.05,
		Shorting:         false,
		MaxOrderPerc:     0.05,
		MinOrderPerc:     0.02,
		MaxPositionPerc:  0.1,
		PriceType:        domain.PriceDefault,
	}
}

// OrderPolicy builds the actual orders once the flex rules have settled on a
// symbol and signed size. The default policy creates market orders.
type OrderPolicy interface {
	Orders(symbol string, size decimal.Decimal, item domain.PriceItem, at time.Time) []domain.Order
}

// MarketOrders creates a single market order per accepted signal.
type MarketOrders struct{}

func (MarketOrders) Orders(symbol string, size decimal.Decimal, _ domain.PriceItem, _ time.Time) []domain.Order {
	return []domain.Order{domain.NewOrder(symbol, size)}
}

// LimitOrders creates a single limit order at the current price, expiring a
// configurable duration after the event time.
type LimitOrders struct {
	PriceType domain.PriceType
	GTD       time.Duration
}

func (p LimitOrders) Orders(symbol string, size decimal.Decimal, item domain.PriceItem, at time.Time) []domain.Order {
	return []domain.Order{domain.NewLimitOrder(symbol, size, item.Price(p.PriceType), at.Add(p.GTD))}
}

// FlexTrader converts signals into orders following configurable rules. It
// never creates an order when the event carries no price for the symbol, and
// it tracks the remaining buying power across the signals of one event, so
// earlier signals can exhaust the budget of later ones.
//
// Discarded signals are logged at debug level together with the rule that
// fired.
type FlexTrader struct {
	cfg    FlexConfig
	policy OrderPolicy
	log    *slog.Logger
}

// NewFlexTrader creates a FlexTrader with the given rules and the market
// order policy.
func NewFlexTrader(cfg FlexConfig) *FlexTrader {
	return NewFlexTraderWithPolicy(cfg, MarketOrders{})
}

// NewFlexTraderWithPolicy creates a FlexTrader with a custom order policy.
func NewFlexTraderWithPolicy(cfg FlexConfig, policy OrderPolicy) *FlexTrader {
	return &FlexTrader{
		cfg:    cfg,
		policy: policy,
		log:    slog.Default().With("trader", "flex"),
	}
}

// discard logs why a signal produced no order.
func (t *FlexTrader) discard(rule string, signal domain.Signal, pos decimal.Decimal, args ...any) {
	attrs := []any{
		"rule", rule,
		"symbol", signal.Symbol,
		"rating", signal.Rating,
		"type", signal.Type.String(),
		"position", pos.String(),
	}
	t.log.Debug("discarded signal", append(attrs, args...)...)
}

func (t *FlexTrader) orderSize(rating, contractPrice, maxOrderValue float64) decimal.Decimal {
	size := decimal.NewFromFloat(rating * maxOrderValue / contractPrice)
	return size.Round(t.cfg.SizeFractions)
}

// CreateOrders implements the Trader interface.
func (t *FlexTrader) CreateOrders(signals []domain.Signal, event *domain.Event, acc *account.Account) ([]domain.Order, error) {
	if len(signals) == 0 {
		return nil, nil
	}

	if t.cfg.ShuffleSignals {
		signals = append([]domain.Signal(nil), signals...)
		rand.Shuffle(len(signals), func(i, j int) { signals[i], signals[j] = signals[j], signals[i] })
	}

	equity, err := acc.Equity()
	if err != nil {
		return nil, err
	}
	maxOrderValue := equity * t.cfg.MaxOrderPerc
	minOrderValue := equity * t.cfg.MinOrderPerc
	maxPosValue := equity * t.cfg.MaxPositionPerc
	available := acc.BuyingPower - t.cfg.SafetyMarginPerc*equity

	var orders []domain.Order
	for _, signal := range signals {
		symbol := signal.Symbol
		posSize := acc.GetPositionSize(symbol)
		change := changeFor(signal.IsBuy(), posSize)

		t.log.Debug("processing signal",
			"available", available, "symbol", symbol, "rating", signal.Rating,
			"position", posSize.String(), "change", change.String())

		if t.cfg.OneOrderOnly && acc.HasOpenOrder(symbol) {
			t.discard("one order only", signal, posSize)
			continue
		}

		item, ok := event.Item(symbol)
		if !ok {
			t.discard("no price is available", signal, posSize)
			continue
		}
		price := item.Price(t.cfg.PriceType)

		if !t.cfg.Shorting && change == entryShort {
			t.discard("no shorting", signal, posSize)
			continue
		}

		if change.isExit() {
			// Closing orders neither require nor consume buying power.
			if !signal.Type.IsExit() {
				t.discard("no exit signal", signal, posSize)
				continue
			}
			size := posSize.Neg().Mul(decimal.NewFromFloat(math.Abs(signal.Rating))).Round(t.cfg.SizeFractions)
			if size.IsZero() {
				t.discard("cannot exit with order size zero", signal, posSize)
				continue
			}
			orders = append(orders, t.policy.Orders(symbol, size, item, event.Time)...)
			continue
		}

		if available < 0 {
			t.discard("no more available buying power", signal, posSize)
			continue
		}
		if !signal.Type.IsEntry() {
			t.discard("no entry signal", signal, posSize)
			continue
		}
		if available < minOrderValue {
			t.discard("available buying power below minimum order value", signal, posSize)
			continue
		}

		posValue, err := acc.PositionValue(symbol)
		if err != nil {
			return nil, err
		}
		availableOrderValue := min(available, maxOrderValue, maxPosValue-math.Abs(posValue))
		if availableOrderValue < minOrderValue {
			t.discard("calculated available order value below minimum order value", signal, posSize)
			continue
		}

		contractPrice, err := acc.ContractValue(symbol, decimal.NewFromInt(1), price)
		if err != nil {
			return nil, err
		}
		orderSize := t.orderSize(signal.Rating, contractPrice, availableOrderValue)
		if orderSize.IsZero() {
			t.discard("calculated order size is zero", signal, posSize)
			continue
		}

		value, err := acc.ContractValue(symbol, orderSize, price)
		if err != nil {
			return nil, err
		}
		orderValue := math.Abs(value)
		if orderValue > available {
			t.discard("order value above available buying power", signal, posSize,
				"orderValue", orderValue, "available", available)
			continue
		}
		if orderValue < minOrderValue {
			t.discard("order value below minimum order value", signal, posSize,
				"orderValue", orderValue, "minOrderValue", minOrderValue)
			continue
		}

		newOrders := t.policy.Orders(symbol, orderSize, item, event.Time)
		if len(newOrders) > 0 {
			orders = append(orders, newOrders...)
			available -= orderValue
		}
	}
	return orders, nil
}
