package money

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestAmountAddReturnsWallet(t *testing.T) {
	// Adding two amounts of the same currency must still produce a wallet,
	// never an implicit single-currency collapse.
	w := USD.Amount(100).Add(USD.Amount(50))
	if len(w) != 1 {
		t.Fatalf("wallet has %d currencies, want 1", len(w))
	}
	if w[USD] != 150 {
		t.Errorf("w[USD] = %v, want 150", w[USD])
	}

	w2 := USD.Amount(100).Add(EUR.Amount(200))
	if len(w2) != 2 {
		t.Fatalf("wallet has %d currencies, want 2", len(w2))
	}
}

func TestWalletRoundTrip(t *testing.T) {
	w1 := NewWallet(USD.Amount(123.45), EUR.Amount(-7.5), JPY.Amount(10000))
	w2 := NewWallet(USD.Amount(0.55), EUR.Amount(99.9))

	sum := w1.Clone()
	sum.AddWallet(w2)
	sum.SubWallet(w2)

	for c, v := range w1 {
		if math.Abs(sum[c]-v) > 1e-9 {
			t.Errorf("round trip for %s = %v, want %v", c, sum[c], v)
		}
	}
}

func TestAmountConvertSameCurrency(t *testing.T) {
	// Same-currency conversion is exact and never consults the converter,
	// even the failing NoConversion default.
	a := USD.Amount(123.456)
	got, err := a.ConvertTo(NoConversion{}, USD, time.Now())
	if err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	if got != 123.456 {
		t.Errorf("ConvertTo = %v, want exactly 123.456", got)
	}
}

func TestZeroAmountConvertsToZero(t *testing.T) {
	a := Amount{Currency: Currency("XXX"), Value: 0}
	got, err := a.ConvertTo(NoConversion{}, USD, time.Now())
	if err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	if got != 0.0 {
		t.Errorf("ConvertTo = %v, want exactly 0.0", got)
	}
}

func TestNoConversionFails(t *testing.T) {
	_, err := USD.Amount(1).ConvertTo(NoConversion{}, EUR, time.Now())
	if !errors.Is(err, ErrNoConverter) {
		t.Fatalf("err = %v, want ErrNoConverter", err)
	}
}

func TestOneToOneConversion(t *testing.T) {
	got, err := USD.Amount(42).ConvertTo(OneToOneConversion{}, EUR, time.Now())
	if err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	if got != 42 {
		t.Errorf("ConvertTo = %v, want 42", got)
	}
}

func TestStaticConversion(t *testing.T) {
	conv := NewStaticConversion(USD, map[Currency]float64{
		EUR: 0.9,
		JPY: 150,
	})

	got, err := EUR.Amount(90).ConvertTo(conv, USD, time.Now())
	if err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	if math.Abs(got-100) > 1e-9 {
		t.Errorf("90 EUR = %v USD, want 100", got)
	}

	// Cross rate through the base.
	got, err = EUR.Amount(0.9).ConvertTo(conv, JPY, time.Now())
	if err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	if math.Abs(got-150) > 1e-9 {
		t.Errorf("0.9 EUR = %v JPY, want 150", got)
	}

	if _, err := GBP.Amount(5).ConvertTo(conv, USD, time.Now()); err == nil {
		t.Error("expected ConversionError for unregistered currency")
	}
	var convErr *ConversionError
	_, err = GBP.Amount(5).ConvertTo(conv, USD, time.Now())
	if !errors.As(err, &convErr) {
		t.Errorf("err = %v, want *ConversionError", err)
	}
}

func TestHistoricalConversionClamping(t *testing.T) {
	conv := NewHistoricalConversion(EUR)
	t1 := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)
	t3 := time.Date(2024, 1, 4, 15, 0, 0, 0, time.UTC)
	conv.AddRate(USD, t2, 1.10)
	conv.AddRate(USD, t1, 1.05)
	conv.AddRate(USD, t3, 1.20)

	tests := []struct {
		name string
		at   time.Time
		want float64
	}{
		{"before earliest clamps to earliest", t1.Add(-24 * time.Hour), 1.05},
		{"exact sample", t2, 1.10},
		{"between samples picks next", t2.Add(time.Hour), 1.20},
		{"after latest clamps to latest", t3.Add(48 * time.Hour), 1.20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EUR.Amount(1).ConvertTo(conv, USD, tt.at)
			if err != nil {
				t.Fatalf("ConvertTo: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("rate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHistoricalConversionCrossRate(t *testing.T) {
	conv := NewHistoricalConversion(EUR)
	at := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	conv.AddRate(USD, at, 1.10)
	conv.AddRate(GBP, at, 0.85)

	got, err := USD.Amount(110).ConvertTo(conv, GBP, at)
	if err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	if math.Abs(got-85) > 1e-9 {
		t.Errorf("110 USD = %v GBP, want 85", got)
	}

	if _, err := CHF.Amount(1).ConvertTo(conv, USD, at); err == nil {
		t.Error("expected ConversionError for currency with no series")
	}
}

func TestWalletConvertTo(t *testing.T) {
	conv := NewStaticConversion(USD, map[Currency]float64{EUR: 0.5})
	w := NewWallet(USD.Amount(100), EUR.Amount(50))

	got, err := w.ConvertTo(conv, USD, time.Now())
	if err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	if math.Abs(got-200) > 1e-9 {
		t.Errorf("ConvertTo = %v, want 200", got)
	}
}

func TestParseECBRates(t *testing.T) {
	csvData := strings.Join([]string{
		"Date,USD,JPY,GBP,",
		"2024-01-03,1.0919,155.33,N/A,",
		"2024-01-02,1.0956,154.65,0.8675,",
	}, "\n")

	conv, err := ParseECBRates(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ParseECBRates: %v", err)
	}
	if conv.Base() != EUR {
		t.Errorf("Base = %s, want EUR", conv.Base())
	}

	at := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	got, err := EUR.Amount(1).ConvertTo(conv, USD, at)
	if err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	if math.Abs(got-1.0956) > 1e-9 {
		t.Errorf("rate = %v, want 1.0956", got)
	}

	// GBP had N/A on the 3rd: a query there clamps onto the last real sample.
	at3 := time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)
	got, err = EUR.Amount(1).ConvertTo(conv, GBP, at3)
	if err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	if math.Abs(got-0.8675) > 1e-9 {
		t.Errorf("rate = %v, want 0.8675", got)
	}
}
