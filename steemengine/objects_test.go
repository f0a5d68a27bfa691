package steemengine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "epoch seconds",
			raw:  `1562221089`,
			want: time.Date(2019, 7, 4, 6, 18, 9, 0, time.UTC),
		},
		{
			name: "iso with milliseconds and zone",
			raw:  `"2019-07-04T06:18:09.000Z"`,
			want: time.Date(2019, 7, 4, 6, 18, 9, 0, time.UTC),
		},
		{
			name: "iso without zone",
			raw:  `"2019-07-04T06:18:09"`,
			want: time.Date(2019, 7, 4, 6, 18, 9, 0, time.UTC),
		},
		{
			name: "space separated",
			raw:  `"2019-07-27 01:06:09"`,
			want: time.Date(2019, 7, 27, 1, 6, 9, 0, time.UTC),
		},
		{
			name: "null is zero time",
			raw:  `null`,
			want: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}

	t.Run("garbage string is an error", func(t *testing.T) {
		_, err := parseTimestamp(json.RawMessage(`"yesterday-ish"`))
		assert.Error(t, err)
	})
}

func TestParseToken(t *testing.T) {
	t.Run("full row with string metadata", func(t *testing.T) {
		raw := json.RawMessage(`{
			"symbol": "eng",
			"name": "Steem Engine Token",
			"issuer": "null",
			"precision": 8,
			"metadata": "{\"url\":\"https://steem-engine.com\",\"icon\":\"eng.png\",\"desc\":\"native token\"}",
			"maxSupply": "9007199254740991",
			"circulatingSupply": "3555195.80488186",
			"supply": "3718173.87074865"
		}`)

		token, err := ParseToken(raw)
		require.NoError(t, err)

		assert.Equal(t, "ENG", token.Symbol)
		assert.Equal(t, "Steem Engine Token", token.Name)
		assert.Equal(t, int32(8), token.Precision)
		assert.Equal(t, "https://steem-engine.com", token.Metadata.URL)
		assert.True(t, token.MaxSupply.Equal(decimal.RequireFromString("9007199254740991")))
		assert.True(t, token.CirculatingSupply.Equal(decimal.RequireFromString("3555195.80488186")))
		assert.Equal(t, "eng", token.Raw["symbol"])
	})

	t.Run("snake_case supply aliases win", func(t *testing.T) {
		raw := json.RawMessage(`{
			"symbol": "BEE",
			"precision": 3,
			"max_supply": "100",
			"circulating_supply": "50"
		}`)

		token, err := ParseToken(raw)
		require.NoError(t, err)
		assert.True(t, token.MaxSupply.Equal(decimal.NewFromInt(100)))
		assert.True(t, token.CirculatingSupply.Equal(decimal.NewFromInt(50)))
	})

	t.Run("broken metadata is not fatal", func(t *testing.T) {
		raw := json.RawMessage(`{"symbol":"BAD","precision":3,"metadata":"{{{nope"}`)

		token, err := ParseToken(raw)
		require.NoError(t, err)
		assert.Equal(t, TokenMetadata{}, token.Metadata)
	})

	t.Run("min amount follows precision", func(t *testing.T) {
		tests := []struct {
			precision int32
			want      string
		}{
			{0, "1"},
			{1, "0.1"},
			{3, "0.001"},
			{8, "0.00000001"},
		}
		for _, tt := range tests {
			token := &Token{Precision: tt.precision}
			assert.Equal(t, tt.want, token.MinAmount().String(), "precision %d", tt.precision)
		}
	})
}

func TestParseBalance(t *testing.T) {
	raw := json.RawMessage(`{"account":"someguy123","symbol":"SGTK","balance":"143.337"}`)

	balance, err := ParseBalance(raw)
	require.NoError(t, err)

	assert.Equal(t, "someguy123", balance.Account)
	assert.Equal(t, "SGTK", balance.Symbol)
	assert.True(t, balance.Balance.Equal(decimal.RequireFromString("143.337")))

	_, err = balance.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoClient, "unbound record lookups return ErrNoClient")
}

func TestParseTransaction(t *testing.T) {
	raw := json.RawMessage(`{
		"block": 53123,
		"txid": "a1b2c3",
		"symbol": "ENG",
		"from": "aggroed",
		"from_type": "user",
		"to": "someguy123",
		"to_type": "user",
		"memo": "payment",
		"timestamp": "2019-07-04T06:18:09.000Z",
		"quantity": "10.5"
	}`)

	tx, err := ParseTransaction(raw)
	require.NoError(t, err)

	assert.Equal(t, int64(53123), tx.Block)
	assert.Equal(t, "aggroed", tx.Sender, "the from field maps to Sender")
	assert.Equal(t, "someguy123", tx.To)
	assert.Equal(t, time.Date(2019, 7, 4, 6, 18, 9, 0, time.UTC), tx.Timestamp)
	assert.True(t, tx.Quantity.Equal(decimal.RequireFromString("10.5")))
}

func TestParseTrade(t *testing.T) {
	t.Run("direction from the type field", func(t *testing.T) {
		raw := json.RawMessage(`{
			"symbol": "SGTK",
			"type": "sell",
			"quantity": "100",
			"price": "0.5",
			"volume": "50",
			"timestamp": 1562221089,
			"buyer": "alice",
			"seller": "bob",
			"buyTxId": "b1",
			"sellTxId": "s1"
		}`)

		trade, err := ParseTrade(raw)
		require.NoError(t, err)

		assert.Equal(t, DirectionSell, trade.Direction)
		assert.Equal(t, "alice", trade.Buyer)
		assert.Equal(t, "b1", trade.BuyTxID)
		assert.Equal(t, time.Date(2019, 7, 4, 6, 18, 9, 0, time.UTC), trade.Timestamp)
	})

	t.Run("invalid direction fails construction", func(t *testing.T) {
		raw := json.RawMessage(`{"symbol":"SGTK","type":"short","quantity":"1","price":"1"}`)

		_, err := ParseTrade(raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidDirection))
	})

	t.Run("missing direction fails construction", func(t *testing.T) {
		raw := json.RawMessage(`{"symbol":"SGTK","quantity":"1","price":"1"}`)

		_, err := ParseTrade(raw)
		assert.ErrorIs(t, err, ErrInvalidDirection)
	})
}

func TestParseOrder(t *testing.T) {
	raw := json.RawMessage(`{
		"symbol": "sgtk",
		"account": "SomeGuy123",
		"quantity": "20",
		"price": "0.25",
		"tokens_locked": "5",
		"timestamp": 1562221089,
		"expiration": 1593757089,
		"txId": "o1"
	}`)

	order, err := ParseOrder(raw)
	require.NoError(t, err)

	assert.Equal(t, "SGTK", order.Symbol, "symbol is upper-cased")
	assert.Equal(t, "someguy123", order.Account, "account is lower-cased")
	assert.True(t, order.TokensLocked.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "o1", order.TxID)
	assert.True(t, order.Expiration.After(order.Timestamp))
}

func TestParseTicker(t *testing.T) {
	t.Run("full row", func(t *testing.T) {
		raw := json.RawMessage(`{
			"_id": 42,
			"symbol": "SGTK",
			"volume": "1000",
			"lastPrice": "0.9",
			"lowestAsk": "0.95",
			"highestBid": "0.85",
			"lastDayPrice": "0.8",
			"priceChange": "0.1",
			"priceChangePercent": "12.5%"
		}`)

		ticker, err := ParseTicker(raw)
		require.NoError(t, err)

		assert.Equal(t, int64(42), ticker.ID)
		assert.True(t, ticker.PriceChange.Equal(decimal.RequireFromString("0.1")))
		assert.Equal(t, "12.5%", ticker.PriceChangePercent)
	})

	t.Run("network-specific price change fallback", func(t *testing.T) {
		raw := json.RawMessage(`{"symbol":"SGTK","priceChangeHive":"-0.05"}`)

		ticker, err := ParseTicker(raw)
		require.NoError(t, err)
		assert.True(t, ticker.PriceChange.Equal(decimal.RequireFromString("-0.05")))
		assert.Equal(t, "0%", ticker.PriceChangePercent)
	})
}

func TestParseTokensBulk(t *testing.T) {
	rows := []json.RawMessage{
		json.RawMessage(`{"symbol":"A","precision":1}`),
		json.RawMessage(`{"symbol":"B","precision":2}`),
	}

	tokens, err := ParseTokens(rows)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "A", tokens[0].Symbol)
	assert.Equal(t, "B", tokens[1].Symbol)
}
