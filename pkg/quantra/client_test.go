package quantra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testAPI(t *testing.T) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/account", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
			"buying_power": 9500,
			"base": "USD",
			"cash": {"USD": 9500},
			"equity": 10030,
			"positions": [{"symbol": "XYZ", "size": "10", "avg_price": 50, "mkt_price": 53}],
			"open_orders": 0,
			"last_update": "2024-03-01T15:04:00Z"
		}`))
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("status") == "open" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{"id": "abc", "symbol": "XYZ", "size": "10", "fill": "10", "status": "filled"}]`))
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"events": 5, "items": 5, "signals": 1, "orders": 1, "prices": {"item/xyz/price": 53}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestClientHealth(t *testing.T) {
	c := testAPI(t)
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestClientGetAccount(t *testing.T) {
	c := testAPI(t)
	acc, err := c.GetAccount(context.Background())
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if acc.Base != "USD" || acc.BuyingPower != 9500 {
		t.Errorf("account = %+v", acc)
	}
	if acc.Equity == nil || *acc.Equity != 10030 {
		t.Errorf("equity = %v, want 10030", acc.Equity)
	}
	if len(acc.Positions) != 1 || acc.Positions[0].Symbol != "XYZ" {
		t.Errorf("positions = %+v", acc.Positions)
	}
}

func TestClientGetOrders(t *testing.T) {
	c := testAPI(t)
	orders, err := c.GetOrders(context.Background(), false)
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(orders) != 1 || orders[0].Status != "filled" {
		t.Errorf("orders = %+v", orders)
	}

	open, err := c.GetOrders(context.Background(), true)
	if err != nil {
		t.Fatalf("GetOrders open: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("open orders = %+v, want none", open)
	}
}

func TestClientGetMetrics(t *testing.T) {
	c := testAPI(t)
	m, err := c.GetMetrics(context.Background())
	if err != nil {
		t.Fatalf("GetMetrics: %v", err)
	}
	if m.Events != 5 || m.Prices["item/xyz/price"] != 53 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.GetAccount(context.Background()); err == nil {
		t.Fatal("expected error for 503 response")
	}
}
