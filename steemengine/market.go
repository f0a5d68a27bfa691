package steemengine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Privex/go-steemengine/steemengine/rpc"
)

// Market query defaults.
const (
	DefaultTradeLimit     = 30
	DefaultOrderbookLimit = 200
)

// TradeOptions filter a trade-history query.
type TradeOptions struct {
	Limit   int
	Offset  int
	Indexes []rpc.Index
}

func (c *Client) queryTradeHistory(ctx context.Context, query map[string]any, opts TradeOptions) ([]*Trade, error) {
	if opts.Limit == 0 {
		opts.Limit = DefaultTradeLimit
	}
	if opts.Indexes == nil {
		opts.Indexes = []rpc.Index{{Index: "_id", Descending: false}}
	}
	rows, err := c.rpc.Find(ctx, rpc.FindQuery{
		Contract: "market",
		Table:    "tradesHistory",
		Query:    query,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
		Indexes:  opts.Indexes,
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, fmt.Errorf("trade history: %w", ErrNoResults)
	}
	trades, err := ParseTrades(rows)
	if err != nil {
		return nil, err
	}
	for _, t := range trades {
		t.Bind(c)
	}
	return trades, nil
}

// OrderHistory returns recent fills for a token's market pair, oldest first.
func (c *Client) OrderHistory(ctx context.Context, symbol string, opts TradeOptions) ([]*Trade, error) {
	return c.queryTradeHistory(ctx, map[string]any{
		"symbol": strings.ToUpper(symbol),
	}, opts)
}

// FindFulfilledBuys returns the fills in which txid was the buy side.
func (c *Client) FindFulfilledBuys(ctx context.Context, txid string, opts TradeOptions) ([]*Trade, error) {
	return c.queryTradeHistory(ctx, map[string]any{"buyTxId": txid}, opts)
}

// FindFulfilledSells returns the fills in which txid was the sell side.
func (c *Client) FindFulfilledSells(ctx context.Context, txid string, opts TradeOptions) ([]*Trade, error) {
	return c.queryTradeHistory(ctx, map[string]any{"sellTxId": txid}, opts)
}

// FindFulfilled returns every fill involving txid, buys then sells.
func (c *Client) FindFulfilled(ctx context.Context, txid string, opts TradeOptions) ([]*Trade, error) {
	buys, err := c.FindFulfilledBuys(ctx, txid, opts)
	if err != nil {
		return nil, err
	}
	sells, err := c.FindFulfilledSells(ctx, txid, opts)
	if err != nil {
		return nil, err
	}
	return append(buys, sells...), nil
}

// OrderbookOptions filter and sort an order book query.
type OrderbookOptions struct {
	// User restricts the book to one account's orders.
	User   string
	Limit  int
	Offset int
	// Query adds extra raw filters to the table query.
	Query   map[string]any
	Indexes []rpc.Index

	// SortBy picks the sort field: price, quantity, timestamp, expiration,
	// account, symbol, txid or tokensLocked. Default price.
	SortBy string
	// SortReverse forces descending (true) or ascending (false) order. Nil
	// keeps the direction-dependent default: buy books sort price high to
	// low, sell books low to high.
	SortReverse *bool
}

// GetOrderbook returns the open buy or sell book for a token, sorted.
func (c *Client) GetOrderbook(ctx context.Context, symbol, direction string, opts OrderbookOptions) ([]*Order, error) {
	if !ValidDirection(direction) {
		return nil, fmt.Errorf("orderbook direction %q: %w", direction, ErrInvalidDirection)
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultOrderbookLimit
	}

	query := map[string]any{"symbol": strings.ToUpper(symbol)}
	for k, v := range opts.Query {
		query[k] = v
	}
	if opts.User != "" {
		query["account"] = strings.ToLower(opts.User)
	}

	table := "buyBook"
	if direction == DirectionSell {
		table = "sellBook"
	}
	rows, err := c.rpc.Find(ctx, rpc.FindQuery{
		Contract: "market",
		Table:    table,
		Query:    query,
		Limit:    opts.Limit,
		Offset:   opts.Offset,
		Indexes:  opts.Indexes,
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, fmt.Errorf("%s book for %s: %w", direction, symbol, ErrNoResults)
	}

	orders, err := ParseOrders(rows)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Bind(c)
	}
	sortOrders(orders, opts.SortBy, sortReverse(direction, opts.SortReverse))
	return orders, nil
}

// sortReverse resolves the effective sort order: an explicit override wins,
// otherwise buy books sort descending and sell books ascending so the best
// price comes first.
func sortReverse(direction string, override *bool) bool {
	if override != nil {
		return *override
	}
	return direction == DirectionBuy
}

func sortOrders(orders []*Order, by string, reverse bool) {
	less := func(a, b *Order) bool { return a.Price.LessThan(b.Price) }
	switch by {
	case "", "price":
	case "quantity":
		less = func(a, b *Order) bool { return a.Quantity.LessThan(b.Quantity) }
	case "tokensLocked", "tokens_locked":
		less = func(a, b *Order) bool { return a.TokensLocked.LessThan(b.TokensLocked) }
	case "timestamp":
		less = func(a, b *Order) bool { return a.Timestamp.Before(b.Timestamp) }
	case "expiration":
		less = func(a, b *Order) bool { return a.Expiration.Before(b.Expiration) }
	case "account":
		less = func(a, b *Order) bool { return a.Account < b.Account }
	case "symbol":
		less = func(a, b *Order) bool { return a.Symbol < b.Symbol }
	case "txid", "txId":
		less = func(a, b *Order) bool { return a.TxID < b.TxID }
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if reverse {
			return less(orders[j], orders[i])
		}
		return less(orders[i], orders[j])
	})
}

// TickerOptions filter a market metrics query.
type TickerOptions struct {
	Limit  int
	Offset int
}

// GetTickers returns market metrics for all traded tokens.
func (c *Client) GetTickers(ctx context.Context, opts TickerOptions) ([]*Ticker, error) {
	rows, err := c.rpc.Find(ctx, rpc.FindQuery{
		Contract: "market",
		Table:    "metrics",
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, fmt.Errorf("tickers: %w", ErrNoResults)
	}
	tickers, err := ParseTickers(rows)
	if err != nil {
		return nil, err
	}
	for _, t := range tickers {
		t.Bind(c)
	}
	return tickers, nil
}

// GetTicker returns market metrics for one token. A token with no metrics row
// returns ErrNoResults.
func (c *Client) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	symbol = strings.ToUpper(symbol)
	row, err := c.rpc.FindOne(ctx, "market", "metrics", map[string]any{
		"symbol": symbol,
	})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("ticker for %s: %w", symbol, ErrNoResults)
	}
	ticker, err := ParseTicker(row)
	if err != nil {
		return nil, err
	}
	ticker.Bind(c)
	return ticker, nil
}
