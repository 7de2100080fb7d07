package account

import (
	"fmt"
	"strings"
	"time"

	"quantra/internal/money"
)

// ContractConverter resolves the scalar applied to size×price to obtain the
// notional value of a contract in the base currency of the account. The rate
// can encode a contract multiplier (e.g. 100 for options), a currency
// conversion for symbols denoted in a foreign currency, or both.
type ContractConverter interface {
	Rate(symbol string, at time.Time) (float64, error)
}

// Compile-time interface checks.
var _ ContractConverter = (*OptionConverter)(nil)
var _ ContractConverter = (*SymbolCurrencies)(nil)

// OptionConverter handles common option contract sizes of 100 and 10.
//
// When no contract size has been registered for a symbol, one is derived
// from the symbol name: a 21-character OCC-compliant option symbol has a
// contract size of 100, or 10 when its root ends in "7" (an adjusted
// contract). Anything else is assumed to be a regular symbol with size 1.
type OptionConverter struct {
	contractSizes map[string]float64
}

// NewOptionConverter creates an OptionConverter without any registered
// contract sizes.
func NewOptionConverter() *OptionConverter {
	return &OptionConverter{contractSizes: map[string]float64{}}
}

// Register sets the contract size for a symbol, overriding derivation from
// the symbol name.
func (c *OptionConverter) Register(symbol string, contractSize float64) {
	c.contractSizes[symbol] = contractSize
}

// Rate returns the contract size for the symbol.
func (c *OptionConverter) Rate(symbol string, _ time.Time) (float64, error) {
	if size, ok := c.contractSizes[symbol]; ok {
		return size, nil
	}

	size := 1.0
	if len(symbol) == 21 {
		// OCC compliant option symbol: 6-char padded root, then the
		// expiration/strike part.
		root := strings.TrimRight(symbol[:6], " ")
		if strings.HasSuffix(root, "7") {
			size = 10.0
		} else {
			size = 100.0
		}
	}
	c.contractSizes[symbol] = size
	return size, nil
}

// SymbolCurrencies supports trading symbols denoted in a currency different
// from the base currency of the account. Registered symbols convert through
// the money converter at the requested time; unregistered symbols fall back
// to the default symbol currency.
type SymbolCurrencies struct {
	base            money.Currency
	defaultCurrency money.Currency
	conv            money.Converter
	symbols         map[string]money.Currency
}

// NewSymbolCurrencies creates a SymbolCurrencies converter against the given
// base currency. An empty defaultCurrency means unregistered symbols are an
// error.
func NewSymbolCurrencies(base, defaultCurrency money.Currency, conv money.Converter) *SymbolCurrencies {
	return &SymbolCurrencies{
		base:            base,
		defaultCurrency: defaultCurrency,
		conv:            conv,
		symbols:         map[string]money.Currency{},
	}
}

// Register sets the denomination currency of a symbol.
func (c *SymbolCurrencies) Register(symbol string, currency money.Currency) {
	c.symbols[symbol] = currency
}

// Rate returns the conversion rate from the symbol's denomination currency
// to the base currency at the given time.
func (c *SymbolCurrencies) Rate(symbol string, at time.Time) (float64, error) {
	currency, ok := c.symbols[symbol]
	if !ok {
		currency = c.defaultCurrency
	}
	if currency == "" {
		return 0, fmt.Errorf("account: no currency registered for symbol %s", symbol)
	}
	if currency == c.base {
		return 1.0, nil
	}
	return currency.Amount(1.0).ConvertTo(c.conv, c.base, at)
}
