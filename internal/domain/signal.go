package domain

// SignalType indicates how a signal may be used: to enter/increase a
// position, to exit/reduce one, or both.
type SignalType int

const (
	// SignalEntryExit signals can both increase and reduce position sizes.
	// This is the default.
	SignalEntryExit SignalType = iota
	// SignalEntry signals may only enter or increase a position.
	SignalEntry
	// SignalExit signals may only exit or reduce a position.
	SignalExit
)

// IsEntry reports whether the type permits entering or increasing a position.
func (st SignalType) IsEntry() bool { return st == SignalEntry || st == SignalEntryExit }

// IsExit reports whether the type permits exiting or reducing a position.
func (st SignalType) IsExit() bool { return st == SignalExit || st == SignalEntryExit }

func (st SignalType) String() string {
	switch st {
	case SignalEntry:
		return "ENTRY"
	case SignalExit:
		return "EXIT"
	default:
		return "ENTRY_EXIT"
	}
}

// Signal is a qualitative trading intent produced by a strategy. The rating
// is normally between -1.0 (strong sell) and 1.0 (strong buy); the sign
// carries the direction and the magnitude the conviction, which the trader
// uses to scale order sizes.
type Signal struct {
	Symbol string
	Rating float64
	Type   SignalType
}

// Buy creates a BUY signal with a rating of 1.0.
func Buy(symbol string, st SignalType) Signal {
	return Signal{Symbol: symbol, Rating: 1.0, Type: st}
}

// Sell creates a SELL signal with a rating of -1.0.
func Sell(symbol string, st SignalType) Signal {
	return Signal{Symbol: symbol, Rating: -1.0, Type: st}
}

// IsBuy reports whether the rating is positive.
func (s Signal) IsBuy() bool { return s.Rating > 0 }

// IsSell reports whether the rating is negative.
func (s Signal) IsSell() bool { return s.Rating < 0 }
