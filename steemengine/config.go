package steemengine

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Supported networks.
const (
	NetworkSteem = "steem"
	NetworkHive  = "hive"
)

// Per-network defaults.
var (
	steemNodes = []string{
		"https://api.steemit.com",
		"https://api.steemdb.online",
		"https://api.justyy.com",
		"https://api.steemitdev.com",
		"https://api.steem.buzz",
	}
	hiveNodes = []string{
		"https://hived.privex.io",
		"https://anyx.io",
		"https://hived.hive-engine.com",
		"https://api.openhive.network",
		"https://fin.hive.3speak.co",
		"https://api.hive.blog",
	}
)

// Config holds everything a Client needs to talk to one token network. Build
// one with DefaultConfig and override fields as needed.
type Config struct {
	// Network selects the token network, steem or hive.
	Network string `validate:"required,oneof=steem hive"`

	// RPCURL is the contracts JSON-RPC endpoint.
	RPCURL string `validate:"required,url"`
	// BlockchainURL is the sidechain blockchain JSON-RPC endpoint, used for
	// transaction-info lookups.
	BlockchainURL string `validate:"required,url"`
	// HistoryURL is the account-history HTTP endpoint.
	HistoryURL string `validate:"required,url"`
	// Nodes are the blockchain (Steem/Hive) node endpoints; the first is
	// used.
	Nodes []string `validate:"required,min=1,dive,url"`

	// NetworkAccount is the sidechain operator account whose presence on the
	// blockchain identifies the right network.
	NetworkAccount string `validate:"required"`
	// NativeCoin is the network's native token symbol, the quote asset of
	// every market pair.
	NativeCoin string `validate:"required"`

	// CacheDisabled starts the client's cache switched off.
	CacheDisabled bool
	// CacheTTL overrides the cache's default entry lifetime.
	CacheTTL time.Duration
}

// Validate checks the config for structural problems.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultConfig returns the stock configuration for a network. Unknown
// networks return a config that fails Validate.
func DefaultConfig(network string) Config {
	switch network {
	case NetworkHive:
		return Config{
			Network:        NetworkHive,
			RPCURL:         "https://api.hive-engine.com:443/rpc/contracts",
			BlockchainURL:  "https://api.hive-engine.com:443/rpc/blockchain",
			HistoryURL:     "https://accounts.hive-engine.com:443/accountHistory",
			Nodes:          append([]string(nil), hiveNodes...),
			NetworkAccount: "ssc-mainnet-hive",
			NativeCoin:     "SWAP.HIVE",
		}
	default:
		return Config{
			Network:        network,
			RPCURL:         "https://api.steem-engine.com:443/rpc/contracts",
			BlockchainURL:  "https://api.steem-engine.com:443/rpc/blockchain",
			HistoryURL:     "https://api.steem-engine.com:443/accounts/history",
			Nodes:          append([]string(nil), steemNodes...),
			NetworkAccount: "ssc-mainnet1",
			NativeCoin:     "STEEMP",
		}
	}
}
