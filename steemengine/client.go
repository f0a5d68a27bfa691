// Package steemengine is a client library for the SteemEngine and HiveEngine
// token networks. It exposes typed read queries over the contracts JSON-RPC
// and account-history APIs, plus token transfer, issue and market-order
// broadcasts through a pluggable blockchain client. Transaction signing is
// delegated to an external Signer; this library never handles keys.
package steemengine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Privex/go-steemengine/steemengine/cache"
	"github.com/Privex/go-steemengine/steemengine/chain"
	"github.com/Privex/go-steemengine/steemengine/history"
	"github.com/Privex/go-steemengine/steemengine/rpc"
)

// Cache lifetimes per query family.
const (
	tokenTTL         = 60 * time.Second
	accountExistsTTL = 30 * time.Second
	listTokensTTL    = 120 * time.Second
	txInfoTTL        = 30 * time.Second
	nativeTokenTTL   = 300 * time.Second
)

// Client is the high-level facade over one token network. Construct it with
// New; the zero value is not usable. Methods are safe for concurrent use.
type Client struct {
	cfg Config

	rpc        *rpc.Client
	blockchain *rpc.Client
	history    *history.Client
	chain      chain.Client
	cache      *cache.Cache
	log        *slog.Logger

	signer chain.Signer
}

// Option configures a Client.
type Option func(*Client)

// WithRPCClient replaces the contracts RPC client.
func WithRPCClient(c *rpc.Client) Option {
	return func(cl *Client) { cl.rpc = c }
}

// WithBlockchainClient replaces the sidechain blockchain RPC client.
func WithBlockchainClient(c *rpc.Client) Option {
	return func(cl *Client) { cl.blockchain = c }
}

// WithHistoryClient replaces the account-history client.
func WithHistoryClient(c *history.Client) Option {
	return func(cl *Client) { cl.history = c }
}

// WithChainClient replaces the blockchain node client. Tests inject fakes
// here; production code usually lets New build a chain.RPC from cfg.Nodes.
func WithChainClient(c chain.Client) Option {
	return func(cl *Client) { cl.chain = c }
}

// WithSigner sets the external transaction signer used for broadcasts. It has
// no effect when WithChainClient injects a complete client.
func WithSigner(s chain.Signer) Option {
	return func(cl *Client) { cl.signer = s }
}

// WithCache replaces the client's cache.
func WithCache(c *cache.Cache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithLogger sets the client's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

// New builds a Client for cfg. The config is validated first; endpoint URLs
// must parse.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = slog.Default()
	}
	if c.cache == nil {
		c.cache = cache.New(cache.Options{
			Disabled:   cfg.CacheDisabled,
			DefaultTTL: cfg.CacheTTL,
		})
	}
	if c.rpc == nil {
		o, err := rpc.FromURL(cfg.RPCURL)
		if err != nil {
			return nil, err
		}
		c.rpc = rpc.New(o)
	}
	if c.blockchain == nil {
		o, err := rpc.FromURL(cfg.BlockchainURL)
		if err != nil {
			return nil, err
		}
		c.blockchain = rpc.New(o)
	}
	if c.history == nil {
		o, err := history.FromURL(cfg.HistoryURL)
		if err != nil {
			return nil, err
		}
		c.history = history.New(o)
	}
	if c.chain == nil {
		var chainOpts []chain.RPCOption
		if c.signer != nil {
			chainOpts = append(chainOpts, chain.WithSigner(c.signer))
		}
		rpcChain, err := chain.NewRPC(cfg.Nodes, chainOpts...)
		if err != nil {
			return nil, err
		}
		c.chain = rpcChain
	}
	return c, nil
}

// Config returns the client's configuration.
func (c *Client) Config() Config { return c.cfg }

// Cache returns the client's cache, e.g. to flip its enable switch.
func (c *Client) Cache() *cache.Cache { return c.cache }

// NativeCoin returns the configured native token symbol.
func (c *Client) NativeCoin() string { return c.cfg.NativeCoin }

// VerifyNetwork checks that the active blockchain node is on the network this
// client is configured for, returning ErrWrongNetwork on a mismatch.
func (c *Client) VerifyNetwork(ctx context.Context) error {
	name, err := c.chain.BlockchainName(ctx)
	if err != nil {
		return err
	}
	if name != c.cfg.Network {
		return fmt.Errorf("node reports chain %q but client is configured for %q: %w",
			name, c.cfg.Network, ErrWrongNetwork)
	}
	return nil
}

// AccountExists reports whether the account exists on the blockchain. The
// network is verified first, so a client pointed at the wrong chain fails
// with ErrWrongNetwork instead of answering for the wrong network.
func (c *Client) AccountExists(ctx context.Context, account string) (bool, error) {
	account = strings.ToLower(account)
	site := cache.CallSite(ctx, "steemengine.Client.AccountExists")
	return cache.Cached(c.cache, site, "account_exists:"+account, accountExistsTTL, func() (bool, error) {
		if err := c.VerifyNetwork(ctx); err != nil {
			return false, err
		}
		return c.chain.AccountExists(ctx, account)
	})
}

func (c *Client) fetchToken(ctx context.Context, symbol string) (*Token, error) {
	row, err := c.rpc.FindOne(ctx, "tokens", "tokens", map[string]any{
		"symbol": strings.ToUpper(symbol),
	})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	return ParseToken(row)
}

// GetToken fetches a token's registration. An unknown symbol returns
// (nil, nil). Cached.
func (c *Client) GetToken(ctx context.Context, symbol string) (*Token, error) {
	symbol = strings.ToUpper(symbol)
	site := cache.CallSite(ctx, "steemengine.Client.GetToken")
	return cache.Cached(c.cache, site, "token:"+symbol, tokenTTL, func() (*Token, error) {
		return c.fetchToken(ctx, symbol)
	})
}

// NativeToken fetches the registration of the network's native token. Cached
// longer than GetToken since the native token rarely changes.
func (c *Client) NativeToken(ctx context.Context) (*Token, error) {
	symbol := strings.ToUpper(c.cfg.NativeCoin)
	site := cache.CallSite(ctx, "steemengine.Client.NativeToken")
	token, err := cache.Cached(c.cache, site, "token:"+symbol, nativeTokenTTL, func() (*Token, error) {
		return c.fetchToken(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, fmt.Errorf("native token %s: %w", symbol, ErrTokenNotFound)
	}
	return token, nil
}

// ListTokens lists registered tokens. Cached per (limit, offset) page.
func (c *Client) ListTokens(ctx context.Context, limit, offset int) ([]*Token, error) {
	site := cache.CallSite(ctx, "steemengine.Client.ListTokens")
	key := fmt.Sprintf("list_tokens:%d:%d", limit, offset)
	return cache.Cached(c.cache, site, key, listTokensTTL, func() ([]*Token, error) {
		rows, err := c.rpc.Find(ctx, rpc.FindQuery{
			Contract: "tokens",
			Table:    "tokens",
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return nil, err
		}
		if rows == nil {
			return nil, fmt.Errorf("list tokens: %w", ErrNoResults)
		}
		return ParseTokens(rows)
	})
}

// GetBalances returns all token balances of an account. Tokens the account
// never held have no row.
func (c *Client) GetBalances(ctx context.Context, account string) ([]*Balance, error) {
	rows, err := c.rpc.Find(ctx, rpc.FindQuery{
		Contract: "tokens",
		Table:    "balances",
		Query:    map[string]any{"account": strings.ToLower(account)},
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, fmt.Errorf("balances for %s: %w", account, ErrNoResults)
	}
	balances, err := ParseBalances(rows)
	if err != nil {
		return nil, err
	}
	for _, b := range balances {
		b.Bind(c)
	}
	return balances, nil
}

// GetTokenBalance returns an account's balance of one token. An absent
// balance row means zero.
func (c *Client) GetTokenBalance(ctx context.Context, account, symbol string) (decimal.Decimal, error) {
	row, err := c.rpc.FindOne(ctx, "tokens", "balances", map[string]any{
		"account": strings.ToLower(account),
		"symbol":  strings.ToUpper(symbol),
	})
	if err != nil {
		return decimal.Zero, err
	}
	if row == nil {
		return decimal.Zero, nil
	}
	balance, err := ParseBalance(row)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.Balance, nil
}

// ListTransactions returns an account's token transfer history, newest first.
// Symbol may be empty for all tokens.
func (c *Client) ListTransactions(ctx context.Context, account, symbol string, limit, offset int) ([]*Transaction, error) {
	rows, err := c.history.GetHistory(ctx, history.Query{
		Account: strings.ToLower(account),
		Symbol:  symbol,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, err
	}
	return ParseTransactions(rows)
}

// GetTransactionInfo looks up a sidechain transaction by id. An unknown txid
// returns (nil, nil). Cached briefly.
func (c *Client) GetTransactionInfo(ctx context.Context, txid string) (*TransactionInfo, error) {
	site := cache.CallSite(ctx, "steemengine.Client.GetTransactionInfo")
	return cache.Cached(c.cache, site, "tx_info:"+txid, txInfoTTL, func() (*TransactionInfo, error) {
		row, err := c.blockchain.GetTransactionInfo(ctx, txid)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, nil
		}
		return ParseTransactionInfo(row)
	})
}
