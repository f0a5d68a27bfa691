package steemengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderHistory(t *testing.T) {
	t.Run("queries tradesHistory with defaults", func(t *testing.T) {
		fixture := newEngineFixture(t)
		fixture.findRows["tradesHistory"] = []map[string]any{
			{"symbol": "SGTK", "type": "buy", "quantity": "10", "price": "0.5",
				"timestamp": 1562221089},
			{"symbol": "SGTK", "type": "sell", "quantity": "3", "price": "0.45",
				"timestamp": 1562221095},
		}
		client := newTestClient(t, fixture, hiveChain())

		trades, err := client.OrderHistory(context.Background(), "sgtk", TradeOptions{})
		require.NoError(t, err)
		require.Len(t, trades, 2)
		assert.Equal(t, DirectionBuy, trades[0].Direction)

		require.Len(t, fixture.findQueries, 1)
		q := fixture.findQueries[0]
		assert.Equal(t, "market", q.Contract)
		assert.Equal(t, "tradesHistory", q.Table)
		assert.Equal(t, "SGTK", q.Query["symbol"])
		assert.Equal(t, DefaultTradeLimit, q.Limit)
		require.Len(t, q.Indexes, 1)
		assert.Equal(t, "_id", q.Indexes[0].Index)
		assert.False(t, q.Indexes[0].Descending)
	})

	t.Run("null response is ErrNoResults", func(t *testing.T) {
		client := newTestClient(t, newEngineFixture(t), hiveChain())

		_, err := client.OrderHistory(context.Background(), "SGTK", TradeOptions{})
		assert.ErrorIs(t, err, ErrNoResults)
	})
}

func TestFindFulfilled(t *testing.T) {
	fixture := newEngineFixture(t)
	fixture.findRows["tradesHistory"] = []map[string]any{
		{"symbol": "SGTK", "type": "buy", "quantity": "1", "price": "0.5",
			"timestamp": 1562221089, "buyTxId": "mytx"},
	}
	client := newTestClient(t, fixture, hiveChain())

	trades, err := client.FindFulfilled(context.Background(), "mytx", TradeOptions{})
	require.NoError(t, err)
	// Fixture serves the same row for the buy and the sell query.
	assert.Len(t, trades, 2)

	require.Len(t, fixture.findQueries, 2)
	assert.Equal(t, "mytx", fixture.findQueries[0].Query["buyTxId"])
	assert.Equal(t, "mytx", fixture.findQueries[1].Query["sellTxId"])
}

func TestGetOrderbook(t *testing.T) {
	book := []map[string]any{
		{"symbol": "SGTK", "account": "alice", "quantity": "10", "price": "0.5",
			"timestamp": 1562221089, "expiration": 1593757089, "txId": "o1"},
		{"symbol": "SGTK", "account": "bob", "quantity": "4", "price": "0.9",
			"timestamp": 1562221090, "expiration": 1593757090, "txId": "o2"},
		{"symbol": "SGTK", "account": "carol", "quantity": "7", "price": "0.7",
			"timestamp": 1562221091, "expiration": 1593757091, "txId": "o3"},
	}

	t.Run("buy book sorts price high to low", func(t *testing.T) {
		fixture := newEngineFixture(t)
		fixture.findRows["buyBook"] = book
		client := newTestClient(t, fixture, hiveChain())

		orders, err := client.GetOrderbook(context.Background(), "SGTK", DirectionBuy, OrderbookOptions{})
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, "0.9", orders[0].Price.String())
		assert.Equal(t, "0.7", orders[1].Price.String())
		assert.Equal(t, "0.5", orders[2].Price.String())

		q := fixture.findQueries[0]
		assert.Equal(t, "buyBook", q.Table)
		assert.Equal(t, DefaultOrderbookLimit, q.Limit)
	})

	t.Run("sell book sorts price low to high", func(t *testing.T) {
		fixture := newEngineFixture(t)
		fixture.findRows["sellBook"] = book
		client := newTestClient(t, fixture, hiveChain())

		orders, err := client.GetOrderbook(context.Background(), "SGTK", DirectionSell, OrderbookOptions{})
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, "0.5", orders[0].Price.String())
		assert.Equal(t, "0.9", orders[2].Price.String())
		assert.Equal(t, "sellBook", fixture.findQueries[0].Table)
	})

	t.Run("explicit sort override", func(t *testing.T) {
		fixture := newEngineFixture(t)
		fixture.findRows["buyBook"] = book
		client := newTestClient(t, fixture, hiveChain())

		asc := false
		orders, err := client.GetOrderbook(context.Background(), "SGTK", DirectionBuy, OrderbookOptions{
			SortBy:      "quantity",
			SortReverse: &asc,
		})
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, "4", orders[0].Quantity.String())
		assert.Equal(t, "10", orders[2].Quantity.String())
	})

	t.Run("user filter is lower-cased into the query", func(t *testing.T) {
		fixture := newEngineFixture(t)
		fixture.findRows["buyBook"] = []map[string]any{}
		client := newTestClient(t, fixture, hiveChain())

		orders, err := client.GetOrderbook(context.Background(), "SGTK", DirectionBuy, OrderbookOptions{
			User: "SomeGuy123",
		})
		require.NoError(t, err)
		assert.Empty(t, orders)
		assert.Equal(t, "someguy123", fixture.findQueries[0].Query["account"])
	})

	t.Run("invalid direction", func(t *testing.T) {
		client := newTestClient(t, newEngineFixture(t), hiveChain())

		_, err := client.GetOrderbook(context.Background(), "SGTK", "short", OrderbookOptions{})
		assert.ErrorIs(t, err, ErrInvalidDirection)
	})

	t.Run("null response is ErrNoResults", func(t *testing.T) {
		client := newTestClient(t, newEngineFixture(t), hiveChain())

		_, err := client.GetOrderbook(context.Background(), "SGTK", DirectionBuy, OrderbookOptions{})
		assert.ErrorIs(t, err, ErrNoResults)
	})
}

func TestGetTickers(t *testing.T) {
	t.Run("returns all metrics rows", func(t *testing.T) {
		fixture := newEngineFixture(t)
		fixture.findRows["metrics"] = []map[string]any{
			{"symbol": "SGTK", "lastPrice": "0.5"},
			{"symbol": "BEE", "lastPrice": "0.9"},
		}
		client := newTestClient(t, fixture, hiveChain())

		tickers, err := client.GetTickers(context.Background(), TickerOptions{})
		require.NoError(t, err)
		assert.Len(t, tickers, 2)
	})

	t.Run("null response is ErrNoResults", func(t *testing.T) {
		client := newTestClient(t, newEngineFixture(t), hiveChain())

		_, err := client.GetTickers(context.Background(), TickerOptions{})
		assert.ErrorIs(t, err, ErrNoResults)
	})
}

func TestGetTicker(t *testing.T) {
	fixture := newEngineFixture(t)
	fixture.findRows["metrics"] = []map[string]any{
		{"symbol": "SGTK", "lastPrice": "0.5", "priceChangeHive": "0.01"},
	}
	client := newTestClient(t, fixture, hiveChain())
	ctx := context.Background()

	t.Run("returns the matching ticker", func(t *testing.T) {
		ticker, err := client.GetTicker(ctx, "sgtk")
		require.NoError(t, err)
		assert.Equal(t, "SGTK", ticker.Symbol)
		assert.Equal(t, "0.01", ticker.PriceChange.String())
	})

	t.Run("unknown symbol is ErrNoResults", func(t *testing.T) {
		_, err := client.GetTicker(ctx, "NOPE")
		assert.ErrorIs(t, err, ErrNoResults)
	})
}
