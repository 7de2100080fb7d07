// Package quantra provides a small Go client for the status API of a
// running engine.
package quantra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the HTTP status API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Position mirrors a position in the account payload.
type Position struct {
	Symbol   string  `json:"symbol"`
	Size     string  `json:"size"`
	AvgPrice float64 `json:"avg_price"`
	MktPrice float64 `json:"mkt_price"`
}

// Account is the account snapshot of a run.
type Account struct {
	BuyingPower float64            `json:"buying_power"`
	Base        string             `json:"base"`
	Cash        map[string]float64 `json:"cash"`
	Equity      *float64           `json:"equity,omitempty"`
	Positions   []Position         `json:"positions"`
	OpenOrders  int                `json:"open_orders"`
	LastUpdate  time.Time          `json:"last_update"`
}

// Order mirrors an order in the orders payload.
type Order struct {
	ID     string  `json:"id"`
	Symbol string  `json:"symbol"`
	Size   string  `json:"size"`
	Limit  float64 `json:"limit,omitempty"`
	Fill   string  `json:"fill"`
	Status string  `json:"status"`
}

// Metrics holds the run counters and latest per-symbol metrics.
type Metrics struct {
	Events  int                `json:"events"`
	Items   int                `json:"items"`
	Signals int                `json:"signals"`
	Orders  int                `json:"orders"`
	Prices  map[string]float64 `json:"prices"`
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Health reports whether the server answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var status map[string]string
	return c.get(ctx, "/healthz", &status)
}

// GetAccount retrieves the latest account snapshot.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var acc Account
	if err := c.get(ctx, "/account", &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// GetOrders retrieves the orders of the run. With openOnly, only orders still
// working at the broker are returned.
func (c *Client) GetOrders(ctx context.Context, openOnly bool) ([]Order, error) {
	path := "/orders"
	if openOnly {
		path += "?status=open"
	}
	var orders []Order
	if err := c.get(ctx, path, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetPositions retrieves the open positions.
func (c *Client) GetPositions(ctx context.Context) ([]Position, error) {
	var positions []Position
	if err := c.get(ctx, "/positions", &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// GetMetrics retrieves the run counters and per-symbol metrics.
func (c *Client) GetMetrics(ctx context.Context) (*Metrics, error) {
	var m Metrics
	if err := c.get(ctx, "/metrics", &m); err != nil {
		return nil, err
	}
	return &m, nil
}
