// Package money models multi-currency monetary values: currencies, amounts,
// wallets, and pluggable currency converters.
package money

// Currency is a symbolic monetary unit, identified by its (usually ISO 4217)
// symbol. Two currencies are equal when their symbols are equal; no numeric
// value is attached.
type Currency string

// Commonly used currencies.
const (
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	JPY Currency = "JPY" // Japanese Yen
	GBP Currency = "GBP" // British Pound
	CHF Currency = "CHF" // Swiss Franc
	INR Currency = "INR" // Indian Rupee
	AUD Currency = "AUD" // Australian Dollar
	CAD Currency = "CAD" // Canadian Dollar
	NZD Currency = "NZD" // New Zealand Dollar
	CNY Currency = "CNY" // Chinese Yuan
	HKD Currency = "HKD" // Hong Kong Dollar
	BTC Currency = "BTC" // Bitcoin
	ETH Currency = "ETH" // Ethereum
)

// Amount returns an Amount of this currency with the given value.
func (c Currency) Amount(value float64) Amount {
	return Amount{Currency: c, Value: value}
}
