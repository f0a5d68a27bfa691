// Package chain talks to a Steem/Hive blockchain node over the condenser
// JSON-RPC API. It covers the account lookups, block reads and custom_json
// broadcasts the steemengine client needs. Transaction signing stays outside
// this package behind the Signer interface.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
)

// Client is the blockchain-node surface consumed by the steemengine client.
// Implementations must not retry internally; transport errors propagate
// unmodified.
type Client interface {
	// AccountExists reports whether the named account exists on the chain.
	AccountExists(ctx context.Context, account string) (bool, error)
	// BlockchainName returns the chain identity, "steem" or "hive".
	BlockchainName(ctx context.Context) (string, error)
	// HeadBlockNumber returns the current head block number.
	HeadBlockNumber(ctx context.Context) (int64, error)
	// Block fetches a block by number. A block that does not exist (yet)
	// returns (nil, nil).
	Block(ctx context.Context, num int64) (*Block, error)
	// BroadcastCustomJSON signs and broadcasts a custom_json operation with
	// the given id and payload, authorized by the active keys of
	// requiredAuths.
	BroadcastCustomJSON(ctx context.Context, id string, payload any, requiredAuths []string) (*BroadcastResult, error)
	// FindTransaction locates a recently broadcast transaction on-chain by
	// its signature set. Not found returns (nil, nil).
	FindTransaction(ctx context.Context, signatures []string, lastBlocks int64) (*LocatedTransaction, error)
}

// Signer produces the signature set for an unsigned transaction. It is the
// integration point for an external wallet or key store; this library never
// touches private keys.
type Signer interface {
	Sign(ctx context.Context, tx *Transaction) ([]string, error)
}

// Operation is a condenser-format operation tuple [name, body].
type Operation struct {
	Name string
	Body json.RawMessage
}

// MarshalJSON encodes the operation as the [name, body] tuple the condenser
// API expects.
func (o Operation) MarshalJSON() ([]byte, error) {
	body := o.Body
	if body == nil {
		body = json.RawMessage("{}")
	}
	return json.Marshal([]json.RawMessage{mustMarshal(o.Name), body})
}

// UnmarshalJSON decodes a [name, body] tuple.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("operation tuple has %d elements, want 2", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &o.Name); err != nil {
		return fmt.Errorf("decode operation name: %w", err)
	}
	o.Body = tuple[1]
	return nil
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// CustomJSONBody is the body of a custom_json operation.
type CustomJSONBody struct {
	RequiredAuths        []string `json:"required_auths"`
	RequiredPostingAuths []string `json:"required_posting_auths"`
	ID                   string   `json:"id"`
	JSON                 string   `json:"json"`
}

// NewCustomJSONOperation builds a custom_json operation carrying payload as
// its embedded JSON string.
func NewCustomJSONOperation(id string, payload any, requiredAuths []string) (Operation, error) {
	inner, err := json.Marshal(payload)
	if err != nil {
		return Operation{}, fmt.Errorf("marshal custom_json payload: %w", err)
	}
	if requiredAuths == nil {
		requiredAuths = []string{}
	}
	body, err := json.Marshal(CustomJSONBody{
		RequiredAuths:        requiredAuths,
		RequiredPostingAuths: []string{},
		ID:                   id,
		JSON:                 string(inner),
	})
	if err != nil {
		return Operation{}, err
	}
	return Operation{Name: "custom_json", Body: body}, nil
}

// Transaction is a condenser-format transaction, unsigned until Signatures is
// populated.
type Transaction struct {
	RefBlockNum    uint16      `json:"ref_block_num"`
	RefBlockPrefix uint32      `json:"ref_block_prefix"`
	Expiration     string      `json:"expiration"`
	Operations     []Operation `json:"operations"`
	Extensions     []any       `json:"extensions"`
	Signatures     []string    `json:"signatures"`
}

// Block is a condenser-format signed block. TransactionIDs is parallel to
// Transactions.
type Block struct {
	BlockID        string        `json:"block_id"`
	Previous       string        `json:"previous"`
	Timestamp      string        `json:"timestamp"`
	Transactions   []Transaction `json:"transactions"`
	TransactionIDs []string      `json:"transaction_ids"`
}

// BroadcastResult is the acknowledgment from a synchronous broadcast.
type BroadcastResult struct {
	ID       string `json:"id"`
	BlockNum int64  `json:"block_num"`
	TrxNum   int    `json:"trx_num"`
	Expired  bool   `json:"expired"`

	// Transaction is the signed transaction that was submitted, including its
	// signature set.
	Transaction *Transaction `json:"-"`
}

// LocatedTransaction is a broadcast transaction as found on-chain afterwards.
type LocatedTransaction struct {
	Transaction

	TransactionID  string
	BlockNum       int64
	TransactionNum int
}
