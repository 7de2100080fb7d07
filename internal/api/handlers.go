package api

import (
	"encoding/json"
	"net/http"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleHealthz reports liveness. It answers ok as soon as the server runs;
// readiness of the run itself shows up in /account.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type positionJSON struct {
	Symbol   string  `json:"symbol"`
	Size     string  `json:"size"`
	AvgPrice float64 `json:"avg_price"`
	MktPrice float64 `json:"mkt_price"`
}

type accountJSON struct {
	BuyingPower float64            `json:"buying_power"`
	Base        string             `json:"base"`
	Cash        map[string]float64 `json:"cash"`
	Equity      *float64           `json:"equity,omitempty"`
	Positions   []positionJSON     `json:"positions"`
	OpenOrders  int                `json:"open_orders"`
	LastUpdate  time.Time          `json:"last_update"`
}

// handleAccount returns the latest account snapshot of the run.
func (s *Server) handleAccount(w http.ResponseWriter, _ *http.Request) {
	acc := s.engine.Account()
	if acc == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no account snapshot yet"})
		return
	}

	result := accountJSON{
		BuyingPower: acc.BuyingPower,
		Base:        string(acc.Base()),
		Cash:        map[string]float64{},
		Positions:   []positionJSON{},
		OpenOrders:  len(acc.OpenOrders()),
		LastUpdate:  acc.LastUpdate,
	}
	for _, a := range acc.Cash.Amounts() {
		result.Cash[string(a.Currency)] = a.Value
	}
	for symbol, pos := range acc.Positions {
		result.Positions = append(result.Positions, positionJSON{
			Symbol:   symbol,
			Size:     pos.Size.String(),
			AvgPrice: pos.AvgPrice,
			MktPrice: pos.MktPrice,
		})
	}
	if equity, err := acc.Equity(); err == nil {
		result.Equity = &equity
	}
	writeJSON(w, http.StatusOK, result)
}

type orderJSON struct {
	ID     string  `json:"id"`
	Symbol string  `json:"symbol"`
	Size   string  `json:"size"`
	Limit  float64 `json:"limit,omitempty"`
	Fill   string  `json:"fill"`
	Status string  `json:"status"`
}

// handleOrders returns the orders of the latest snapshot, open first.
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	acc := s.engine.Account()
	if acc == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no account snapshot yet"})
		return
	}

	orders := acc.Orders
	if r.URL.Query().Get("status") == "open" {
		orders = acc.OpenOrders()
	}
	result := make([]orderJSON, 0, len(orders))
	for _, o := range orders {
		result = append(result, orderJSON{
			ID:     o.ID,
			Symbol: o.Symbol,
			Size:   o.Size.String(),
			Limit:  o.Limit,
			Fill:   o.Fill.String(),
			Status: string(o.Status),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// handlePositions returns the open positions of the latest snapshot.
func (s *Server) handlePositions(w http.ResponseWriter, _ *http.Request) {
	acc := s.engine.Account()
	if acc == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no account snapshot yet"})
		return
	}

	result := make([]positionJSON, 0, len(acc.Positions))
	for symbol, pos := range acc.Positions {
		result = append(result, positionJSON{
			Symbol:   symbol,
			Size:     pos.Size.String(),
			AvgPrice: pos.AvgPrice,
			MktPrice: pos.MktPrice,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

type metricsJSON struct {
	Events  int                `json:"events"`
	Items   int                `json:"items"`
	Signals int                `json:"signals"`
	Orders  int                `json:"orders"`
	Prices  map[string]float64 `json:"prices"`
}

// handleMetrics returns the run counters and the latest per-symbol metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	result := metricsJSON{Prices: map[string]float64{}}
	if s.basic != nil {
		result.Events, result.Items, result.Signals, result.Orders = s.basic.Counts()
	}
	if s.prices != nil {
		result.Prices = s.prices.Metrics()
	}
	writeJSON(w, http.StatusOK, result)
}
