package steemengine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record types for the rows returned by the SteemEngine/HiveEngine APIs.
// Each type is built from a raw JSON row: amount fields are coerced to
// decimals, timestamps are normalized to UTC, and field-name aliases from the
// remote API (maxSupply/max_supply, from/sender, tokensLocked/tokens_locked)
// are reconciled into one canonical field. The original row is retained in
// Raw so fields this library does not model stay reachable.

// parseTimestamp accepts an epoch-seconds number or an ISO-8601 string and
// returns the corresponding UTC time. Empty or null input returns the zero
// time.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}

	var epoch int64
	if err := json.Unmarshal(raw, &epoch); err == nil {
		return time.Unix(epoch, 0).UTC(), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("timestamp is neither a number nor a string: %s", raw)
	}
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// pickDecimal returns the first non-nil alias, or zero.
func pickDecimal(aliases ...*decimal.Decimal) decimal.Decimal {
	for _, d := range aliases {
		if d != nil {
			return *d
		}
	}
	return decimal.Zero
}

func rawMap(raw json.RawMessage) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// decodeNested unmarshals a field that the API delivers either as an object
// or as a JSON-encoded string requiring a second decode.
func decodeNested(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), v)
	}
	return json.Unmarshal(raw, v)
}

// TokenMetadata is the decoded metadata field of a Token.
type TokenMetadata struct {
	URL  string `json:"url"`
	Icon string `json:"icon"`
	Desc string `json:"desc"`
}

// Token is a token's registration on the SteemEngine side-chain. It is an
// immutable snapshot of remote state at fetch time.
type Token struct {
	Symbol            string
	Name              string
	Issuer            string
	Metadata          TokenMetadata
	Precision         int32
	MaxSupply         decimal.Decimal
	CirculatingSupply decimal.Decimal
	Supply            decimal.Decimal

	// Raw is the original row, for fields not modeled above.
	Raw map[string]any
}

// MinAmount returns the smallest amount representable at the token's
// precision, i.e. 10^-precision.
func (t *Token) MinAmount() decimal.Decimal {
	return decimal.New(1, -t.Precision)
}

// ParseToken builds a Token from a raw API row.
func ParseToken(raw json.RawMessage) (*Token, error) {
	var aux struct {
		Symbol                 string           `json:"symbol"`
		Name                   string           `json:"name"`
		Issuer                 string           `json:"issuer"`
		Metadata               json.RawMessage  `json:"metadata"`
		Precision              int32            `json:"precision"`
		MaxSupply              *decimal.Decimal `json:"maxSupply"`
		MaxSupplySnake         *decimal.Decimal `json:"max_supply"`
		CirculatingSupply      *decimal.Decimal `json:"circulatingSupply"`
		CirculatingSupplySnake *decimal.Decimal `json:"circulating_supply"`
		Supply                 *decimal.Decimal `json:"supply"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	t := &Token{
		Symbol:            strings.ToUpper(aux.Symbol),
		Name:              aux.Name,
		Issuer:            aux.Issuer,
		Precision:         aux.Precision,
		MaxSupply:         pickDecimal(aux.MaxSupplySnake, aux.MaxSupply),
		CirculatingSupply: pickDecimal(aux.CirculatingSupplySnake, aux.CirculatingSupply),
		Supply:            pickDecimal(aux.Supply),
		Raw:               rawMap(raw),
	}
	// Metadata arrives as a JSON-encoded string; a broken one is not fatal.
	if err := decodeNested(aux.Metadata, &t.Metadata); err != nil {
		slog.Warn("failed to decode token metadata", "symbol", t.Symbol, "error", err)
		t.Metadata = TokenMetadata{}
	}
	return t, nil
}

// ParseTokens builds Tokens from a list of raw API rows.
func ParseTokens(rows []json.RawMessage) ([]*Token, error) {
	tokens := make([]*Token, 0, len(rows))
	for _, row := range rows {
		t, err := ParseToken(row)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// Balance is one (account, symbol) balance row. Absence of a row means the
// balance is zero.
type Balance struct {
	Account string
	Symbol  string
	Balance decimal.Decimal

	Raw    map[string]any
	client *Client
}

// Bind associates the balance with a client so convenience lookups work. The
// client is only referenced, never managed.
func (b *Balance) Bind(c *Client) { b.client = c }

// Token fetches the Token record for this balance's symbol.
func (b *Balance) Token(ctx context.Context) (*Token, error) {
	if b.client == nil {
		return nil, ErrNoClient
	}
	return b.client.GetToken(ctx, b.Symbol)
}

// ParseBalance builds a Balance from a raw API row.
func ParseBalance(raw json.RawMessage) (*Balance, error) {
	var aux struct {
		Account string           `json:"account"`
		Symbol  string           `json:"symbol"`
		Balance *decimal.Decimal `json:"balance"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	return &Balance{
		Account: aux.Account,
		Symbol:  aux.Symbol,
		Balance: pickDecimal(aux.Balance),
		Raw:     rawMap(raw),
	}, nil
}

// ParseBalances builds Balances from a list of raw API rows.
func ParseBalances(rows []json.RawMessage) ([]*Balance, error) {
	balances := make([]*Balance, 0, len(rows))
	for _, row := range rows {
		b, err := ParseBalance(row)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, nil
}

// Transaction is a token transfer from the account-history API. It is an
// immutable historical fact.
type Transaction struct {
	Block     int64
	TxID      string
	Symbol    string
	Sender    string
	FromType  string
	To        string
	ToType    string
	Memo      string
	Timestamp time.Time
	Quantity  decimal.Decimal

	Raw map[string]any
}

// ParseTransaction builds a Transaction from a raw history row.
func ParseTransaction(raw json.RawMessage) (*Transaction, error) {
	var aux struct {
		Block     int64            `json:"block"`
		TxID      string           `json:"txid"`
		Symbol    string           `json:"symbol"`
		From      string           `json:"from"`
		Sender    string           `json:"sender"`
		FromType  string           `json:"from_type"`
		To        string           `json:"to"`
		ToType    string           `json:"to_type"`
		Memo      string           `json:"memo"`
		Timestamp json.RawMessage  `json:"timestamp"`
		Quantity  *decimal.Decimal `json:"quantity"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, fmt.Errorf("parse transaction: %w", err)
	}
	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse transaction: %w", err)
	}

	sender := aux.From
	if sender == "" {
		sender = aux.Sender
	}
	return &Transaction{
		Block:     aux.Block,
		TxID:      aux.TxID,
		Symbol:    aux.Symbol,
		Sender:    sender,
		FromType:  aux.FromType,
		To:        aux.To,
		ToType:    aux.ToType,
		Memo:      aux.Memo,
		Timestamp: ts,
		Quantity:  pickDecimal(aux.Quantity),
	}, nil
}

// ParseTransactions builds Transactions from a list of raw history rows.
func ParseTransactions(rows []json.RawMessage) ([]*Transaction, error) {
	txs := make([]*Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := ParseTransaction(row)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Trade directions.
const (
	DirectionBuy  = "buy"
	DirectionSell = "sell"
)

// ValidDirection reports whether direction is exactly buy or sell.
func ValidDirection(direction string) bool {
	return direction == DirectionBuy || direction == DirectionSell
}

// Trade is a historical fill from the market's tradesHistory table.
type Trade struct {
	Symbol    string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Volume    decimal.Decimal
	Timestamp time.Time
	// Direction is exactly "buy" or "sell".
	Direction string
	Buyer     string
	Seller    string
	BuyTxID   string
	SellTxID  string

	Raw    map[string]any
	client *Client
}

// Bind associates the trade with a client so convenience lookups work.
func (t *Trade) Bind(c *Client) { t.client = c }

// BuyTransaction looks up the sidechain transaction behind BuyTxID.
func (t *Trade) BuyTransaction(ctx context.Context) (*TransactionInfo, error) {
	if t.client == nil {
		return nil, ErrNoClient
	}
	if t.BuyTxID == "" {
		return nil, nil
	}
	return t.client.GetTransactionInfo(ctx, t.BuyTxID)
}

// SellTransaction looks up the sidechain transaction behind SellTxID.
func (t *Trade) SellTransaction(ctx context.Context) (*TransactionInfo, error) {
	if t.client == nil {
		return nil, ErrNoClient
	}
	if t.SellTxID == "" {
		return nil, nil
	}
	return t.client.GetTransactionInfo(ctx, t.SellTxID)
}

// ParseTrade builds a Trade from a raw API row. Construction fails unless the
// row's direction (field "type" or "direction") resolves to buy or sell.
func ParseTrade(raw json.RawMessage) (*Trade, error) {
	var aux struct {
		Symbol    string           `json:"symbol"`
		Quantity  *decimal.Decimal `json:"quantity"`
		Price     *decimal.Decimal `json:"price"`
		Volume    *decimal.Decimal `json:"volume"`
		Timestamp json.RawMessage  `json:"timestamp"`
		Type      string           `json:"type"`
		Direction string           `json:"direction"`
		Buyer     string           `json:"buyer"`
		Seller    string           `json:"seller"`
		BuyTxID   string           `json:"buyTxId"`
		SellTxID  string           `json:"sellTxId"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, fmt.Errorf("parse trade: %w", err)
	}

	direction := aux.Direction
	if direction == "" {
		direction = aux.Type
	}
	if !ValidDirection(direction) {
		return nil, fmt.Errorf("parse trade: got %q: %w", direction, ErrInvalidDirection)
	}
	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse trade: %w", err)
	}

	return &Trade{
		Symbol:    aux.Symbol,
		Quantity:  pickDecimal(aux.Quantity),
		Price:     pickDecimal(aux.Price),
		Volume:    pickDecimal(aux.Volume),
		Timestamp: ts,
		Direction: direction,
		Buyer:     aux.Buyer,
		Seller:    aux.Seller,
		BuyTxID:   aux.BuyTxID,
		SellTxID:  aux.SellTxID,
		Raw:       rawMap(raw),
	}, nil
}

// ParseTrades builds Trades from a list of raw API rows.
func ParseTrades(rows []json.RawMessage) ([]*Trade, error) {
	trades := make([]*Trade, 0, len(rows))
	for _, row := range rows {
		t, err := ParseTrade(row)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// Order is an open order book entry from the market's buyBook/sellBook
// tables.
type Order struct {
	Symbol       string
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	TokensLocked decimal.Decimal
	Timestamp    time.Time
	Expiration   time.Time
	Account      string
	TxID         string

	Raw    map[string]any
	client *Client
}

// Bind associates the order with a client so convenience lookups work.
func (o *Order) Bind(c *Client) { o.client = c }

// Transaction looks up the sidechain transaction that placed this order.
func (o *Order) Transaction(ctx context.Context) (*TransactionInfo, error) {
	if o.client == nil {
		return nil, ErrNoClient
	}
	if o.TxID == "" {
		return nil, nil
	}
	return o.client.GetTransactionInfo(ctx, o.TxID)
}

// ParseOrder builds an Order from a raw API row.
func ParseOrder(raw json.RawMessage) (*Order, error) {
	var aux struct {
		Symbol            string           `json:"symbol"`
		Quantity          *decimal.Decimal `json:"quantity"`
		Price             *decimal.Decimal `json:"price"`
		TokensLocked      *decimal.Decimal `json:"tokensLocked"`
		TokensLockedSnake *decimal.Decimal `json:"tokens_locked"`
		Timestamp         json.RawMessage  `json:"timestamp"`
		Expiration        json.RawMessage  `json:"expiration"`
		Account           string           `json:"account"`
		TxID              string           `json:"txId"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, fmt.Errorf("parse order: %w", err)
	}
	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse order: %w", err)
	}
	exp, err := parseTimestamp(aux.Expiration)
	if err != nil {
		return nil, fmt.Errorf("parse order: %w", err)
	}

	return &Order{
		Symbol:       strings.ToUpper(aux.Symbol),
		Quantity:     pickDecimal(aux.Quantity),
		Price:        pickDecimal(aux.Price),
		TokensLocked: pickDecimal(aux.TokensLockedSnake, aux.TokensLocked),
		Timestamp:    ts,
		Expiration:   exp,
		Account:      strings.ToLower(aux.Account),
		TxID:         aux.TxID,
		Raw:          rawMap(raw),
	}, nil
}

// ParseOrders builds Orders from a list of raw API rows.
func ParseOrders(rows []json.RawMessage) ([]*Order, error) {
	orders := make([]*Order, 0, len(rows))
	for _, row := range rows {
		o, err := ParseOrder(row)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Ticker is a market metrics row for one token.
type Ticker struct {
	Symbol                 string
	Volume                 decimal.Decimal
	LastPrice              decimal.Decimal
	LowestAsk              decimal.Decimal
	HighestBid             decimal.Decimal
	VolumeExpiration       int64
	LastDayPrice           decimal.Decimal
	LastDayPriceExpiration int64
	PriceChange            decimal.Decimal
	PriceChangePercent     string
	ID                     int64

	Raw    map[string]any
	client *Client
}

// Bind associates the ticker with a client so convenience lookups work.
func (t *Ticker) Bind(c *Client) { t.client = c }

// Token fetches the Token record for this ticker's symbol.
func (t *Ticker) Token(ctx context.Context) (*Token, error) {
	if t.client == nil {
		return nil, ErrNoClient
	}
	return t.client.GetToken(ctx, t.Symbol)
}

// BuyBook fetches the open buy orders for this ticker's symbol.
func (t *Ticker) BuyBook(ctx context.Context) ([]*Order, error) {
	if t.client == nil {
		return nil, ErrNoClient
	}
	return t.client.GetOrderbook(ctx, t.Symbol, DirectionBuy, OrderbookOptions{})
}

// SellBook fetches the open sell orders for this ticker's symbol.
func (t *Ticker) SellBook(ctx context.Context) ([]*Order, error) {
	if t.client == nil {
		return nil, ErrNoClient
	}
	return t.client.GetOrderbook(ctx, t.Symbol, DirectionSell, OrderbookOptions{})
}

// History fetches recent trades for this ticker's symbol.
func (t *Ticker) History(ctx context.Context) ([]*Trade, error) {
	if t.client == nil {
		return nil, ErrNoClient
	}
	return t.client.OrderHistory(ctx, t.Symbol, TradeOptions{Limit: 100})
}

// ParseTicker builds a Ticker from a raw API row.
func ParseTicker(raw json.RawMessage) (*Ticker, error) {
	var aux struct {
		Symbol                 string           `json:"symbol"`
		Volume                 *decimal.Decimal `json:"volume"`
		LastPrice              *decimal.Decimal `json:"lastPrice"`
		LowestAsk              *decimal.Decimal `json:"lowestAsk"`
		HighestBid             *decimal.Decimal `json:"highestBid"`
		VolumeExpiration       int64            `json:"volumeExpiration"`
		LastDayPrice           *decimal.Decimal `json:"lastDayPrice"`
		LastDayPriceExpiration int64            `json:"lastDayPriceExpiration"`
		PriceChange            *decimal.Decimal `json:"priceChange"`
		PriceChangeSteem       *decimal.Decimal `json:"priceChangeSteem"`
		PriceChangeHive        *decimal.Decimal `json:"priceChangeHive"`
		PriceChangePercent     string           `json:"priceChangePercent"`
		ID                     int64            `json:"_id"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, fmt.Errorf("parse ticker: %w", err)
	}

	// The network-specific priceChangeSteem/priceChangeHive fields back-fill
	// priceChange when it is absent or zero.
	change := pickDecimal(aux.PriceChange)
	if change.IsZero() {
		change = pickDecimal(aux.PriceChangeSteem, aux.PriceChangeHive)
	}
	percent := aux.PriceChangePercent
	if percent == "" {
		percent = "0%"
	}
	return &Ticker{
		Symbol:                 aux.Symbol,
		Volume:                 pickDecimal(aux.Volume),
		LastPrice:              pickDecimal(aux.LastPrice),
		LowestAsk:              pickDecimal(aux.LowestAsk),
		HighestBid:             pickDecimal(aux.HighestBid),
		VolumeExpiration:       aux.VolumeExpiration,
		LastDayPrice:           pickDecimal(aux.LastDayPrice),
		LastDayPriceExpiration: aux.LastDayPriceExpiration,
		PriceChange:            change,
		PriceChangePercent:     percent,
		ID:                     aux.ID,
		Raw:                    rawMap(raw),
	}, nil
}

// ParseTickers builds Tickers from a list of raw API rows.
func ParseTickers(rows []json.RawMessage) ([]*Ticker, error) {
	tickers := make([]*Ticker, 0, len(rows))
	for _, row := range rows {
		t, err := ParseTicker(row)
		if err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, nil
}
