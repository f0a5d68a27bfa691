package chain

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	jrpc "github.com/AdamSLevy/jsonrpc2/v14"
)

const (
	// DefaultTimeout applies to every node request.
	DefaultTimeout = 30 * time.Second

	// txExpiration is how far in the future a broadcast transaction expires.
	txExpiration = 30 * time.Second

	timeLayout = "2006-01-02T15:04:05"
)

// RPC is the condenser-API implementation of Client. Each steemengine client
// owns its own RPC handle; there is no shared global instance.
type RPC struct {
	NodeURL string
	jrpc.Client

	signer Signer

	mu   sync.Mutex
	name string // cached blockchain name
}

// RPCOption configures an RPC client.
type RPCOption func(*RPC)

// WithSigner injects the external transaction signer used for broadcasts.
func WithSigner(s Signer) RPCOption {
	return func(c *RPC) { c.signer = s }
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) RPCOption {
	return func(c *RPC) { c.Timeout = d }
}

// NewRPC returns an RPC client for the first node in nodes.
func NewRPC(nodes []string, opts ...RPCOption) (*RPC, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("at least one blockchain node URL is required")
	}
	c := &RPC{NodeURL: nodes[0]}
	c.Timeout = DefaultTimeout
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *RPC) request(ctx context.Context, method string, params, result any) error {
	return c.Request(ctx, c.NodeURL, "condenser_api."+method, params, result)
}

// AccountExists reports whether the account exists on the chain.
func (c *RPC) AccountExists(ctx context.Context, account string) (bool, error) {
	var accounts []json.RawMessage
	if err := c.request(ctx, "get_accounts", []any{[]string{account}}, &accounts); err != nil {
		return false, err
	}
	return len(accounts) > 0, nil
}

// BlockchainName resolves the chain identity from the node's config constant
// prefixes (HIVE_* vs STEEM_*). The result is cached for the lifetime of the
// client, since a handle is pinned to one node.
func (c *RPC) BlockchainName(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.name != "" {
		return c.name, nil
	}

	var config map[string]json.RawMessage
	if err := c.request(ctx, "get_config", []any{}, &config); err != nil {
		return "", err
	}
	for key := range config {
		if strings.HasPrefix(key, "HIVE_") {
			c.name = "hive"
			return c.name, nil
		}
	}
	for key := range config {
		if strings.HasPrefix(key, "STEEM_") {
			c.name = "steem"
			return c.name, nil
		}
	}
	return "", fmt.Errorf("node %s reports an unrecognized chain config", c.NodeURL)
}

type dynamicGlobalProperties struct {
	HeadBlockNumber int64  `json:"head_block_number"`
	HeadBlockID     string `json:"head_block_id"`
	Time            string `json:"time"`
}

func (c *RPC) globalProperties(ctx context.Context) (*dynamicGlobalProperties, error) {
	var props dynamicGlobalProperties
	if err := c.request(ctx, "get_dynamic_global_properties", []any{}, &props); err != nil {
		return nil, err
	}
	return &props, nil
}

// HeadBlockNumber returns the current head block number.
func (c *RPC) HeadBlockNumber(ctx context.Context) (int64, error) {
	props, err := c.globalProperties(ctx)
	if err != nil {
		return 0, err
	}
	return props.HeadBlockNumber, nil
}

// Block fetches a block by number. Blocks that have not been produced yet
// return (nil, nil).
func (c *RPC) Block(ctx context.Context, num int64) (*Block, error) {
	var raw json.RawMessage
	if err := c.request(ctx, "get_block", []any{num}, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var block Block
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, fmt.Errorf("decode block %d: %w", num, err)
	}
	return &block, nil
}

// BroadcastCustomJSON builds a custom_json transaction referencing the
// current head block, obtains its signature set from the configured Signer,
// and broadcasts it synchronously. Re-invoking after an ambiguous failure can
// double-submit; that is the caller's responsibility.
func (c *RPC) BroadcastCustomJSON(ctx context.Context, id string, payload any, requiredAuths []string) (*BroadcastResult, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("no transaction signer configured for node %s", c.NodeURL)
	}

	props, err := c.globalProperties(ctx)
	if err != nil {
		return nil, err
	}
	prefix, err := refBlockPrefix(props.HeadBlockID)
	if err != nil {
		return nil, err
	}
	headTime, err := time.Parse(timeLayout, props.Time)
	if err != nil {
		return nil, fmt.Errorf("parse head block time %q: %w", props.Time, err)
	}

	op, err := NewCustomJSONOperation(id, payload, requiredAuths)
	if err != nil {
		return nil, err
	}
	tx := &Transaction{
		RefBlockNum:    uint16(props.HeadBlockNumber & 0xFFFF),
		RefBlockPrefix: prefix,
		Expiration:     headTime.Add(txExpiration).Format(timeLayout),
		Operations:     []Operation{op},
		Extensions:     []any{},
	}

	sigs, err := c.signer.Sign(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("sign custom_json transaction: %w", err)
	}
	tx.Signatures = sigs

	var res BroadcastResult
	if err := c.request(ctx, "broadcast_transaction_synchronous", []any{tx}, &res); err != nil {
		return nil, err
	}
	res.Transaction = tx
	return &res, nil
}

// DefaultFindBlocks is how far behind the head block FindTransaction scans
// when the caller passes lastBlocks <= 0.
const DefaultFindBlocks = 15

// FindTransaction scans the window head-lastBlocks .. head+5 for a
// transaction whose signature set matches signatures, ignoring order. The
// first match wins. Blocks past the head that have not been produced yet are
// skipped. No match returns (nil, nil).
func (c *RPC) FindTransaction(ctx context.Context, signatures []string, lastBlocks int64) (*LocatedTransaction, error) {
	if len(signatures) == 0 {
		return nil, nil
	}
	if lastBlocks <= 0 {
		lastBlocks = DefaultFindBlocks
	}
	head, err := c.HeadBlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	want := append([]string(nil), signatures...)
	sort.Strings(want)

	for num := head - lastBlocks; num <= head+5; num++ {
		if num < 1 {
			continue
		}
		block, err := c.Block(ctx, num)
		if err != nil {
			return nil, err
		}
		if block == nil {
			continue
		}
		for i, tx := range block.Transactions {
			got := append([]string(nil), tx.Signatures...)
			sort.Strings(got)
			if !slices.Equal(want, got) {
				continue
			}
			found := &LocatedTransaction{
				Transaction:    tx,
				BlockNum:       num,
				TransactionNum: i,
			}
			if i < len(block.TransactionIDs) {
				found.TransactionID = block.TransactionIDs[i]
			}
			return found, nil
		}
	}
	return nil, nil
}

// refBlockPrefix extracts the TaPoS prefix from a hex block id: bytes 4..8
// interpreted little-endian.
func refBlockPrefix(blockID string) (uint32, error) {
	raw, err := hex.DecodeString(blockID)
	if err != nil {
		return 0, fmt.Errorf("decode head block id %q: %w", blockID, err)
	}
	if len(raw) < 8 {
		return 0, fmt.Errorf("head block id %q is too short", blockID)
	}
	return binary.LittleEndian.Uint32(raw[4:8]), nil
}
