package account

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"quantra/internal/domain"
	"quantra/internal/money"
)

func TestNewAccount(t *testing.T) {
	acc := New(money.USD, nil, nil)
	if acc.BuyingPower != 0 {
		t.Errorf("BuyingPower = %v, want 0", acc.BuyingPower)
	}
	pnl, err := acc.UnrealizedPNL()
	if err != nil || pnl != 0 {
		t.Errorf("UnrealizedPNL = %v, %v; want 0, nil", pnl, err)
	}
	mkt, err := acc.MktValue()
	if err != nil || mkt != 0 {
		t.Errorf("MktValue = %v, %v; want 0, nil", mkt, err)
	}
}

func TestAccountPositions(t *testing.T) {
	acc := New(money.USD, nil, nil)
	for i := 0; i < 10; i++ {
		price := 10.0 + float64(i)
		acc.Positions[string(rune('A'+i))] = Position{
			Size:     decimal.NewFromInt(10),
			AvgPrice: price,
			MktPrice: price,
		}
	}

	mkt, err := acc.MktValue()
	if err != nil {
		t.Fatalf("MktValue: %v", err)
	}
	if math.Abs(mkt-1450.0) > 1e-9 {
		t.Errorf("MktValue = %v, want 1450", mkt)
	}

	pnl, err := acc.UnrealizedPNL()
	if err != nil {
		t.Fatalf("UnrealizedPNL: %v", err)
	}
	if math.Abs(pnl) > 1e-9 {
		t.Errorf("UnrealizedPNL = %v, want 0", pnl)
	}
}

func TestAccountEquityMultiCurrency(t *testing.T) {
	conv := money.NewStaticConversion(money.USD, map[money.Currency]float64{
		money.EUR: 0.5, // 1 USD = 0.5 EUR, so 1 EUR = 2 USD
	})
	acc := New(money.USD, conv, nil)
	acc.Cash.AddAmount(money.USD.Amount(1000))
	acc.Cash.AddAmount(money.EUR.Amount(100))
	acc.Positions["AAPL"] = Position{Size: decimal.NewFromInt(5), AvgPrice: 100, MktPrice: 110}

	equity, err := acc.Equity()
	if err != nil {
		t.Fatalf("Equity: %v", err)
	}
	// 1000 USD + 200 USD (from EUR) + 550 position value.
	if math.Abs(equity-1750) > 1e-9 {
		t.Errorf("Equity = %v, want 1750", equity)
	}
}

func TestAccountEquityConversionError(t *testing.T) {
	acc := New(money.USD, nil, nil)
	acc.Cash.AddAmount(money.EUR.Amount(100))

	if _, err := acc.Equity(); err == nil {
		t.Fatal("expected error for cross-currency equity without converter")
	}
}

func TestOptionConverter(t *testing.T) {
	oc := NewOptionConverter()
	oc.Register("DUMMY", 5.0)
	acc := New(money.USD, nil, oc)
	now := time.Now()
	acc.LastUpdate = now

	tests := []struct {
		symbol string
		want   float64
	}{
		{"DUMMY", 1000.0},                // registered contract size of 5
		{"TSLA", 200.0},                  // regular symbol, size 1
		{"AAPL  131101C00470000", 20000}, // OCC option, size 100
		{"AAPL7 131101C00470000", 2000},  // adjusted OCC option, size 10
	}
	for _, tt := range tests {
		got, err := acc.ContractValue(tt.symbol, decimal.NewFromInt(1), 200.0)
		if err != nil {
			t.Fatalf("ContractValue(%s): %v", tt.symbol, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ContractValue(%s) = %v, want %v", tt.symbol, got, tt.want)
		}
	}
}

func TestSymbolCurrencies(t *testing.T) {
	conv := money.NewStaticConversion(money.USD, map[money.Currency]float64{
		money.JPY: 150, // 1 USD = 150 JPY
	})
	sc := NewSymbolCurrencies(money.USD, money.USD, conv)
	sc.Register("7203.T", money.JPY)

	rate, err := sc.Rate("AAPL", time.Now())
	if err != nil || rate != 1.0 {
		t.Errorf("Rate(AAPL) = %v, %v; want 1.0, nil", rate, err)
	}

	rate, err = sc.Rate("7203.T", time.Now())
	if err != nil {
		t.Fatalf("Rate(7203.T): %v", err)
	}
	if math.Abs(rate-1.0/150.0) > 1e-12 {
		t.Errorf("Rate(7203.T) = %v, want %v", rate, 1.0/150.0)
	}

	empty := NewSymbolCurrencies(money.USD, "", conv)
	if _, err := empty.Rate("UNKNOWN", time.Now()); err == nil {
		t.Error("expected error for symbol without currency and no default")
	}
}

func TestHasOpenOrderAndPositionSize(t *testing.T) {
	acc := New(money.USD, nil, nil)
	acc.Orders = []domain.Order{
		{ID: "1", Symbol: "AAPL", Size: decimal.NewFromInt(10), Status: domain.StatusOpen},
		{ID: "2", Symbol: "MSFT", Size: decimal.NewFromInt(5), Status: domain.StatusFilled},
	}

	if !acc.HasOpenOrder("AAPL") {
		t.Error("HasOpenOrder(AAPL) = false, want true")
	}
	if acc.HasOpenOrder("MSFT") {
		t.Error("HasOpenOrder(MSFT) = true for filled order, want false")
	}
	if acc.HasOpenOrder("TSLA") {
		t.Error("HasOpenOrder(TSLA) = true, want false")
	}
	if got := len(acc.OpenOrders()); got != 1 {
		t.Errorf("OpenOrders count = %d, want 1", got)
	}

	if !acc.GetPositionSize("TSLA").IsZero() {
		t.Error("GetPositionSize for absent symbol should be zero")
	}
	acc.Positions["TSLA"] = Position{Size: decimal.NewFromInt(-3)}
	if !acc.GetPositionSize("TSLA").Equal(decimal.NewFromInt(-3)) {
		t.Errorf("GetPositionSize = %s, want -3", acc.GetPositionSize("TSLA"))
	}
}
