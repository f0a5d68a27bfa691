package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationJSON(t *testing.T) {
	t.Run("marshals as a name-body tuple", func(t *testing.T) {
		op := Operation{Name: "custom_json", Body: json.RawMessage(`{"id":"ssc-mainnet-hive"}`)}

		data, err := json.Marshal(op)
		require.NoError(t, err)
		assert.JSONEq(t, `["custom_json",{"id":"ssc-mainnet-hive"}]`, string(data))
	})

	t.Run("round-trips", func(t *testing.T) {
		var op Operation
		require.NoError(t, json.Unmarshal([]byte(`["transfer",{"from":"alice"}]`), &op))

		assert.Equal(t, "transfer", op.Name)
		assert.JSONEq(t, `{"from":"alice"}`, string(op.Body))
	})

	t.Run("rejects malformed tuples", func(t *testing.T) {
		var op Operation
		assert.Error(t, json.Unmarshal([]byte(`["transfer"]`), &op))
	})
}

func TestNewCustomJSONOperation(t *testing.T) {
	op, err := NewCustomJSONOperation("ssc-mainnet-hive", map[string]any{
		"contractName": "tokens",
	}, []string{"someguy123"})
	require.NoError(t, err)

	assert.Equal(t, "custom_json", op.Name)

	var body CustomJSONBody
	require.NoError(t, json.Unmarshal(op.Body, &body))
	assert.Equal(t, "ssc-mainnet-hive", body.ID)
	assert.Equal(t, []string{"someguy123"}, body.RequiredAuths)
	assert.Empty(t, body.RequiredPostingAuths)
	assert.JSONEq(t, `{"contractName":"tokens"}`, body.JSON)
}

func TestRefBlockPrefix(t *testing.T) {
	t.Run("little-endian of bytes 4..8", func(t *testing.T) {
		prefix, err := refBlockPrefix("00bc614eaabbccdd00112233")
		require.NoError(t, err)
		assert.Equal(t, uint32(0xddccbbaa), prefix)
	})

	t.Run("rejects short ids", func(t *testing.T) {
		_, err := refBlockPrefix("00bc61")
		assert.Error(t, err)
	})

	t.Run("rejects non-hex ids", func(t *testing.T) {
		_, err := refBlockPrefix("not-hex-at-all!!")
		assert.Error(t, err)
	})
}

// nodeFixture is a minimal condenser-API JSON-RPC server.
func nodeFixture(t *testing.T, handlers map[string]func(params json.RawMessage) any) *RPC {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			ID     json.RawMessage `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		handler, ok := handlers[req.Method]
		require.True(t, ok, "unexpected method %q", req.Method)

		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handler(req.Params),
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)

	client, err := NewRPC([]string{srv.URL})
	require.NoError(t, err)
	return client
}

func TestNewRPCRequiresNodes(t *testing.T) {
	_, err := NewRPC(nil)
	assert.Error(t, err)
}

func TestAccountExists(t *testing.T) {
	client := nodeFixture(t, map[string]func(json.RawMessage) any{
		"condenser_api.get_accounts": func(params json.RawMessage) any {
			var names [][]string
			require.NoError(t, json.Unmarshal(params, &names))
			if names[0][0] == "someguy123" {
				return []map[string]any{{"name": "someguy123"}}
			}
			return []any{}
		},
	})

	exists, err := client.AccountExists(context.Background(), "someguy123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.AccountExists(context.Background(), "no-such-account")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBlockchainName(t *testing.T) {
	t.Run("hive prefixes", func(t *testing.T) {
		calls := 0
		client := nodeFixture(t, map[string]func(json.RawMessage) any{
			"condenser_api.get_config": func(json.RawMessage) any {
				calls++
				return map[string]any{"HIVE_CHAIN_ID": "beeab0de"}
			},
		})

		name, err := client.BlockchainName(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "hive", name)

		// Second call is answered from the client-local cache.
		name, err = client.BlockchainName(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "hive", name)
		assert.Equal(t, 1, calls)
	})

	t.Run("steem prefixes", func(t *testing.T) {
		client := nodeFixture(t, map[string]func(json.RawMessage) any{
			"condenser_api.get_config": func(json.RawMessage) any {
				return map[string]any{"STEEM_CHAIN_ID": "00000000"}
			},
		})

		name, err := client.BlockchainName(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "steem", name)
	})

	t.Run("unknown chain is an error", func(t *testing.T) {
		client := nodeFixture(t, map[string]func(json.RawMessage) any{
			"condenser_api.get_config": func(json.RawMessage) any {
				return map[string]any{"GRAPHENE_SYMBOL": "X"}
			},
		})

		_, err := client.BlockchainName(context.Background())
		assert.Error(t, err)
	})
}

func TestBlockNotProducedYet(t *testing.T) {
	client := nodeFixture(t, map[string]func(json.RawMessage) any{
		"condenser_api.get_block": func(json.RawMessage) any { return nil },
	})

	block, err := client.Block(context.Background(), 99999999)
	require.NoError(t, err)
	assert.Nil(t, block)
}

type fakeSigner struct {
	signed *Transaction
	sigs   []string
	err    error
}

func (s *fakeSigner) Sign(ctx context.Context, tx *Transaction) ([]string, error) {
	s.signed = tx
	return s.sigs, s.err
}

func TestBroadcastCustomJSON(t *testing.T) {
	props := map[string]any{
		"head_block_number": 12345678,
		"head_block_id":     "00bc614eaabbccdd00112233",
		"time":              "2026-08-30T12:00:00",
	}

	t.Run("builds, signs and submits the transaction", func(t *testing.T) {
		var submitted Transaction
		signer := &fakeSigner{sigs: []string{"SIG1"}}

		client := nodeFixture(t, map[string]func(json.RawMessage) any{
			"condenser_api.get_dynamic_global_properties": func(json.RawMessage) any {
				return props
			},
			"condenser_api.broadcast_transaction_synchronous": func(params json.RawMessage) any {
				var txs []Transaction
				require.NoError(t, json.Unmarshal(params, &txs))
				require.Len(t, txs, 1)
				submitted = txs[0]
				return map[string]any{"id": "deadbeef", "block_num": 12345679, "trx_num": 3}
			},
		})
		client.signer = signer

		res, err := client.BroadcastCustomJSON(context.Background(), "ssc-mainnet-hive",
			map[string]any{"contractName": "tokens"}, []string{"someguy123"})
		require.NoError(t, err)

		assert.Equal(t, "deadbeef", res.ID)
		assert.Equal(t, int64(12345679), res.BlockNum)
		require.NotNil(t, res.Transaction)

		assert.Equal(t, uint16(12345678&0xFFFF), submitted.RefBlockNum)
		assert.Equal(t, uint32(0xddccbbaa), submitted.RefBlockPrefix)
		assert.Equal(t, "2026-08-30T12:00:30", submitted.Expiration)
		assert.Equal(t, []string{"SIG1"}, submitted.Signatures)
		require.Len(t, submitted.Operations, 1)
		assert.Equal(t, "custom_json", submitted.Operations[0].Name)
		assert.NotNil(t, signer.signed)
	})

	t.Run("no signer configured is an error", func(t *testing.T) {
		client := nodeFixture(t, map[string]func(json.RawMessage) any{})

		_, err := client.BroadcastCustomJSON(context.Background(), "ssc-mainnet-hive",
			map[string]any{}, nil)
		assert.Error(t, err)
	})
}

func TestFindTransaction(t *testing.T) {
	makeBlock := func(sigs []string, txid string) map[string]any {
		return map[string]any{
			"block_id": "00bc614eaabbccdd00112233",
			"transactions": []map[string]any{
				{
					"ref_block_num": 1,
					"operations":    []any{},
					"extensions":    []any{},
					"signatures":    sigs,
				},
			},
			"transaction_ids": []string{txid},
		}
	}

	client := nodeFixture(t, map[string]func(json.RawMessage) any{
		"condenser_api.get_dynamic_global_properties": func(json.RawMessage) any {
			return map[string]any{"head_block_number": 100}
		},
		"condenser_api.get_block": func(params json.RawMessage) any {
			var nums []int64
			require.NoError(t, json.Unmarshal(params, &nums))
			switch {
			case nums[0] > 100:
				// not produced yet
				return nil
			case nums[0] == 99:
				return makeBlock([]string{"SIGB", "SIGA"}, "deadbeef")
			default:
				return makeBlock([]string{"OTHER"}, "cafebabe")
			}
		},
	})

	t.Run("matches signature sets regardless of order", func(t *testing.T) {
		found, err := client.FindTransaction(context.Background(), []string{"SIGA", "SIGB"}, 0)
		require.NoError(t, err)

		require.NotNil(t, found)
		assert.Equal(t, "deadbeef", found.TransactionID)
		assert.Equal(t, int64(99), found.BlockNum)
		assert.Equal(t, 0, found.TransactionNum)
	})

	t.Run("no match returns nil, nil", func(t *testing.T) {
		found, err := client.FindTransaction(context.Background(), []string{"UNSEEN"}, 0)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("empty signature set returns nil, nil", func(t *testing.T) {
		found, err := client.FindTransaction(context.Background(), nil, 0)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
