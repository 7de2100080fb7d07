package money

import (
	"sort"
	"strings"
	"time"
)

// Wallet holds monetary values of different currencies. It behaves as a pure
// accumulator: each currency appears at most once, missing currencies count
// as zero, and zero-valued entries are permitted. Wallets can be added,
// subtracted, and converted to a single currency.
type Wallet map[Currency]float64

// NewWallet creates a wallet holding the provided amounts.
func NewWallet(amounts ...Amount) Wallet {
	w := Wallet{}
	for _, a := range amounts {
		w.AddAmount(a)
	}
	return w
}

// AddAmount adds a single amount to this wallet in place.
func (w Wallet) AddAmount(a Amount) {
	w[a.Currency] += a.Value
}

// SubAmount subtracts a single amount from this wallet in place.
func (w Wallet) SubAmount(a Amount) {
	w[a.Currency] -= a.Value
}

// AddWallet adds all entries of another wallet to this wallet in place.
func (w Wallet) AddWallet(other Wallet) {
	for c, v := range other {
		w[c] += v
	}
}

// SubWallet subtracts all entries of another wallet from this wallet in place.
func (w Wallet) SubWallet(other Wallet) {
	for c, v := range other {
		w[c] -= v
	}
}

// Clone returns a deep copy of this wallet.
func (w Wallet) Clone() Wallet {
	result := make(Wallet, len(w))
	for c, v := range w {
		result[c] = v
	}
	return result
}

// Amounts returns the amounts contained in this wallet, ordered by currency
// symbol for deterministic output.
func (w Wallet) Amounts() []Amount {
	result := make([]Amount, 0, len(w))
	for c, v := range w {
		result = append(result, Amount{Currency: c, Value: v})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Currency < result[j].Currency })
	return result
}

// ConvertTo converts all amounts held in this wallet to a single currency at
// the provided time and returns the summed value.
func (w Wallet) ConvertTo(conv Converter, to Currency, at time.Time) (float64, error) {
	total := 0.0
	for _, a := range w.Amounts() {
		v, err := a.ConvertTo(conv, to, at)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

func (w Wallet) String() string {
	parts := make([]string, 0, len(w))
	for _, a := range w.Amounts() {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " + ")
}
