package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"quantra/internal/account"
	"quantra/internal/domain"
	"quantra/internal/money"
)

// Compile-time interface check.
var _ Broker = (*AlpacaBroker)(nil)

// AlpacaBroker executes orders through the Alpaca trading API. Point the
// base URL at the paper endpoint for paper trading.
//
// Alpaca accounts are USD only, so no money converter is involved.
type AlpacaBroker struct {
	client *alpaca.Client
	log    *slog.Logger
}

// NewAlpacaBroker creates an AlpacaBroker with the given credentials and API
// endpoint.
func NewAlpacaBroker(apiKey, apiSecret, baseURL string) *AlpacaBroker {
	return &AlpacaBroker{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		log: slog.Default().With("broker", "alpaca"),
	}
}

// PlaceOrders submits the orders to Alpaca. Orders with an ID update or
// cancel the existing order; a zero size is a cancellation.
func (b *AlpacaBroker) PlaceOrders(_ context.Context, orders []domain.Order) error {
	for _, order := range orders {
		switch {
		case order.ID != "" && order.IsCancellation():
			if err := b.client.CancelOrder(order.ID); err != nil {
				return fmt.Errorf("cancelling order %s: %w", order.ID, err)
			}
		case order.ID != "":
			qty := order.Size.Abs()
			req := alpaca.ReplaceOrderRequest{Qty: &qty}
			if !order.IsMarket() {
				limit := decimal.NewFromFloat(order.Limit)
				req.LimitPrice = &limit
			}
			if _, err := b.client.ReplaceOrder(order.ID, req); err != nil {
				return fmt.Errorf("replacing order %s: %w", order.ID, err)
			}
		default:
			if err := b.place(order); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *AlpacaBroker) place(order domain.Order) error {
	side := alpaca.Buy
	if order.IsSell() {
		side = alpaca.Sell
	}
	qty := order.Size.Abs()
	req := alpaca.PlaceOrderRequest{
		Symbol:      order.Symbol,
		Qty:         &qty,
		Side:        side,
		Type:        alpaca.Market,
		TimeInForce: alpaca.GTC,
	}
	if !order.IsMarket() {
		limit := decimal.NewFromFloat(order.Limit)
		req.Type = alpaca.Limit
		req.LimitPrice = &limit
	}

	placed, err := b.client.PlaceOrder(req)
	if err != nil {
		return fmt.Errorf("placing order %s: %w", order.String(), err)
	}
	b.log.Info("order placed", "id", placed.ID, "order", order.String())
	return nil
}

func orderStatus(status string) domain.OrderStatus {
	switch status {
	case "new", "accepted", "pending_new":
		return domain.StatusNew
	case "filled":
		return domain.StatusFilled
	case "canceled", "pending_cancel", "replaced":
		return domain.StatusCancelled
	case "expired":
		return domain.StatusExpired
	default:
		return domain.StatusOpen
	}
}

// Sync fetches the account, positions and recent orders from Alpaca and
// returns them as an account snapshot. The event only provides the snapshot
// time; prices come from Alpaca itself.
func (b *AlpacaBroker) Sync(_ context.Context, event *domain.Event) (*account.Account, error) {
	acct, err := b.client.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	positions, err := b.client.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("fetching positions: %w", err)
	}
	orders, err := b.client.GetOrders(alpaca.GetOrdersRequest{
		Status: "all",
		Limit:  100,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching orders: %w", err)
	}

	acc := account.New(money.USD, money.OneToOneConversion{}, nil)
	acc.BuyingPower, _ = acct.BuyingPower.Float64()
	cash, _ := acct.Cash.Float64()
	acc.Cash.AddAmount(money.USD.Amount(cash))

	for _, p := range positions {
		avg, _ := p.AvgEntryPrice.Float64()
		mkt := avg
		if p.CurrentPrice != nil {
			mkt, _ = p.CurrentPrice.Float64()
		}
		acc.Positions[p.Symbol] = account.Position{
			Size:     p.Qty,
			AvgPrice: avg,
			MktPrice: mkt,
		}
	}

	for _, o := range orders {
		size := decimal.Zero
		if o.Qty != nil {
			size = *o.Qty
		}
		if o.Side == alpaca.Sell {
			size = size.Neg()
		}
		fill := o.FilledQty
		if o.Side == alpaca.Sell {
			fill = fill.Neg()
		}
		order := domain.Order{
			ID:     o.ID,
			Symbol: o.Symbol,
			Size:   size,
			Fill:   fill,
			Status: orderStatus(string(o.Status)),
		}
		if o.LimitPrice != nil {
			order.Limit, _ = o.LimitPrice.Float64()
		}
		acc.Orders = append(acc.Orders, order)
	}

	if event != nil {
		acc.LastUpdate = event.Time
	} else {
		acc.LastUpdate = time.Now().UTC()
	}
	return acc, nil
}
