package steemengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Privex/go-steemengine/steemengine/chain"
)

// TransferResult reports a broadcast token transfer or issuance.
type TransferResult struct {
	Symbol string
	Sender string
	To     string
	Amount decimal.Decimal
	Memo   string

	// CustomTx is the sidechain operation that was broadcast.
	CustomTx CustomJSON
	// TxID is the blockchain transaction id, taken from the located on-chain
	// transaction when available and the broadcast acknowledgment otherwise.
	TxID string
	// Broadcast is the node's acknowledgment.
	Broadcast *chain.BroadcastResult
	// NetworkTransaction is the transaction as found on-chain afterwards.
	// Nil unless the caller asked to locate it and the scan succeeded.
	NetworkTransaction *chain.LocatedTransaction
}

// PlacedOrder reports a broadcast market order.
type PlacedOrder struct {
	Symbol    string
	Direction string
	User      string
	Quantity  decimal.Decimal
	Price     decimal.Decimal

	CustomTx           CustomJSON
	TxID               string
	Broadcast          *chain.BroadcastResult
	NetworkTransaction *chain.LocatedTransaction

	client *Client
}

// Bind associates the placed order with a client so convenience lookups work.
func (p *PlacedOrder) Bind(c *Client) { p.client = c }

// Transaction looks up the sidechain execution record of this order.
func (p *PlacedOrder) Transaction(ctx context.Context) (*TransactionInfo, error) {
	if p.client == nil {
		return nil, ErrNoClient
	}
	if p.TxID == "" {
		return nil, nil
	}
	return p.client.GetTransactionInfo(ctx, p.TxID)
}

// Trades returns the fills this order has participated in so far.
func (p *PlacedOrder) Trades(ctx context.Context) ([]*Trade, error) {
	if p.client == nil {
		return nil, ErrNoClient
	}
	if p.TxID == "" {
		return nil, nil
	}
	return p.client.FindFulfilled(ctx, p.TxID, TradeOptions{})
}

// transferPayload is the contract payload of tokens/transfer and
// tokens/issue. Quantity is pre-formatted at the token's precision so the
// sidechain never sees scientific notation.
type transferPayload struct {
	Symbol   string `json:"symbol"`
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo,omitempty"`
}

type orderPayload struct {
	Symbol   string `json:"symbol"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

// requireToken resolves a token, turning an unknown symbol into
// ErrTokenNotFound.
func (c *Client) requireToken(ctx context.Context, symbol string) (*Token, error) {
	token, err := c.GetToken(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, fmt.Errorf("token %s: %w", strings.ToUpper(symbol), ErrTokenNotFound)
	}
	return token, nil
}

// requireAccount turns a missing account into ErrAccountNotFound naming the
// account and its role (sender, receiver, user).
func (c *Client) requireAccount(ctx context.Context, role, account string) error {
	exists, err := c.AccountExists(ctx, account)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s account %q: %w", role, account, ErrAccountNotFound)
	}
	return nil
}

func (c *Client) broadcastContract(ctx context.Context, op CustomJSON, requiredAuths []string) (*chain.BroadcastResult, error) {
	return c.chain.BroadcastCustomJSON(ctx, c.cfg.NetworkAccount, op, requiredAuths)
}

// locateBroadcast scans recent blocks for the broadcast transaction. The scan
// is best-effort: on failure or no match the acknowledgment's id is used.
func (c *Client) locateBroadcast(ctx context.Context, res *chain.BroadcastResult) (*chain.LocatedTransaction, string) {
	txid := res.ID
	if res.Transaction == nil || len(res.Transaction.Signatures) == 0 {
		return nil, txid
	}
	located, err := c.chain.FindTransaction(ctx, res.Transaction.Signatures, 0)
	if err != nil {
		c.log.Warn("could not locate broadcast transaction on-chain",
			"txid", txid, "error", err)
		return nil, txid
	}
	if located == nil {
		c.log.Debug("broadcast transaction not found in recent blocks", "txid", txid)
		return nil, txid
	}
	if located.TransactionID != "" {
		txid = located.TransactionID
	}
	return located, txid
}

// SendToken transfers amount of symbol from one account to another. The
// amount is truncated to the token's precision. Validation happens before the
// broadcast: the token must exist, the amount must be at least the smallest
// representable unit, the sender must hold enough balance, both accounts must
// exist, and the node must be on the configured network. When findTx is true
// the broadcast transaction is additionally located on-chain.
func (c *Client) SendToken(ctx context.Context, symbol, from, to string, amount decimal.Decimal, memo string, findTx bool) (*TransferResult, error) {
	from = strings.ToLower(from)
	to = strings.ToLower(to)

	token, err := c.requireToken(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(token.MinAmount()) {
		return nil, fmt.Errorf("amount %s of %s (min %s): %w",
			amount, token.Symbol, token.MinAmount(), ErrPrecisionTooLow)
	}
	amount = amount.RoundDown(token.Precision)

	balance, err := c.GetTokenBalance(ctx, from, token.Symbol)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(amount) {
		return nil, fmt.Errorf("account %s holds %s %s, needs %s: %w",
			from, balance, token.Symbol, amount, ErrNotEnoughBalance)
	}
	if err := c.requireAccount(ctx, "sender", from); err != nil {
		return nil, err
	}
	if err := c.requireAccount(ctx, "receiver", to); err != nil {
		return nil, err
	}
	if err := c.VerifyNetwork(ctx); err != nil {
		return nil, err
	}

	op := CustomJSON{
		ContractName:   "tokens",
		ContractAction: "transfer",
		ContractPayload: transferPayload{
			Symbol:   token.Symbol,
			To:       to,
			Quantity: amount.StringFixed(token.Precision),
			Memo:     memo,
		},
	}
	c.log.Debug("broadcasting token transfer",
		"symbol", token.Symbol, "from", from, "to", to, "amount", amount)
	res, err := c.broadcastContract(ctx, op, []string{from})
	if err != nil {
		return nil, err
	}

	result := &TransferResult{
		Symbol:    token.Symbol,
		Sender:    from,
		To:        to,
		Amount:    amount,
		Memo:      memo,
		CustomTx:  op,
		TxID:      res.ID,
		Broadcast: res,
	}
	if findTx {
		result.NetworkTransaction, result.TxID = c.locateBroadcast(ctx, res)
	}
	return result, nil
}

// IssueToken issues amount of symbol to an account, authorized by the token's
// issuer. Validation mirrors SendToken minus the sender and balance checks.
func (c *Client) IssueToken(ctx context.Context, symbol, to string, amount decimal.Decimal, findTx bool) (*TransferResult, error) {
	to = strings.ToLower(to)

	token, err := c.requireToken(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(token.MinAmount()) {
		return nil, fmt.Errorf("amount %s of %s (min %s): %w",
			amount, token.Symbol, token.MinAmount(), ErrPrecisionTooLow)
	}
	amount = amount.RoundDown(token.Precision)

	if err := c.requireAccount(ctx, "receiver", to); err != nil {
		return nil, err
	}
	if err := c.VerifyNetwork(ctx); err != nil {
		return nil, err
	}

	op := CustomJSON{
		ContractName:   "tokens",
		ContractAction: "issue",
		ContractPayload: transferPayload{
			Symbol:   token.Symbol,
			To:       to,
			Quantity: amount.StringFixed(token.Precision),
		},
	}
	c.log.Debug("broadcasting token issue",
		"symbol", token.Symbol, "issuer", token.Issuer, "to", to, "amount", amount)
	res, err := c.broadcastContract(ctx, op, []string{token.Issuer})
	if err != nil {
		return nil, err
	}

	result := &TransferResult{
		Symbol:    token.Symbol,
		Sender:    token.Issuer,
		To:        to,
		Amount:    amount,
		CustomTx:  op,
		TxID:      res.ID,
		Broadcast: res,
	}
	if findTx {
		result.NetworkTransaction, result.TxID = c.locateBroadcast(ctx, res)
	}
	return result, nil
}

// PlaceOrder places a limit order on a token's market pair against the native
// coin. Quantity and price are truncated to the token's precision; the price
// in the broadcast payload is formatted at the native token's precision. A
// sell requires quantity of the token; a buy requires quantity*price of the
// native coin, truncated to the native precision.
func (c *Client) PlaceOrder(ctx context.Context, user, direction, symbol string, quantity, price decimal.Decimal, findTx bool) (*PlacedOrder, error) {
	user = strings.ToLower(user)
	if !ValidDirection(direction) {
		return nil, fmt.Errorf("order direction %q: %w", direction, ErrInvalidDirection)
	}

	token, err := c.requireToken(ctx, symbol)
	if err != nil {
		return nil, err
	}
	native, err := c.NativeToken(ctx)
	if err != nil {
		return nil, err
	}
	if quantity.LessThan(token.MinAmount()) {
		return nil, fmt.Errorf("quantity %s of %s (min %s): %w",
			quantity, token.Symbol, token.MinAmount(), ErrPrecisionTooLow)
	}
	if price.LessThan(token.MinAmount()) {
		return nil, fmt.Errorf("price %s for %s (min %s): %w",
			price, token.Symbol, token.MinAmount(), ErrPrecisionTooLow)
	}
	quantity = quantity.RoundDown(token.Precision)
	price = price.RoundDown(token.Precision)

	if direction == DirectionSell {
		balance, err := c.GetTokenBalance(ctx, user, token.Symbol)
		if err != nil {
			return nil, err
		}
		if balance.LessThan(quantity) {
			return nil, fmt.Errorf("account %s holds %s %s, sell needs %s: %w",
				user, balance, token.Symbol, quantity, ErrNotEnoughBalance)
		}
	} else {
		cost := quantity.Mul(price).RoundDown(native.Precision)
		balance, err := c.GetTokenBalance(ctx, user, native.Symbol)
		if err != nil {
			return nil, err
		}
		if balance.LessThan(cost) {
			return nil, fmt.Errorf("account %s holds %s %s, buy needs %s: %w",
				user, balance, native.Symbol, cost, ErrNotEnoughBalance)
		}
	}
	if err := c.requireAccount(ctx, "user", user); err != nil {
		return nil, err
	}
	if err := c.VerifyNetwork(ctx); err != nil {
		return nil, err
	}

	op := CustomJSON{
		ContractName:   "market",
		ContractAction: direction,
		ContractPayload: orderPayload{
			Symbol:   token.Symbol,
			Quantity: quantity.StringFixed(token.Precision),
			Price:    price.StringFixed(native.Precision),
		},
	}
	c.log.Debug("broadcasting market order",
		"symbol", token.Symbol, "direction", direction, "user", user,
		"quantity", quantity, "price", price)
	res, err := c.broadcastContract(ctx, op, []string{user})
	if err != nil {
		return nil, err
	}

	order := &PlacedOrder{
		Symbol:    token.Symbol,
		Direction: direction,
		User:      user,
		Quantity:  quantity,
		Price:     price,
		CustomTx:  op,
		TxID:      res.ID,
		Broadcast: res,
	}
	order.Bind(c)
	if findTx {
		order.NetworkTransaction, order.TxID = c.locateBroadcast(ctx, res)
	}
	return order, nil
}
