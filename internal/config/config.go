package config

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/Privex/go-steemengine/steemengine"
)

// Config represents the CLI configuration
type Config struct {
	Network       string   `mapstructure:"network" validate:"required,oneof=steem hive"`
	RPCURL        string   `mapstructure:"rpc_url" validate:"omitempty,url"`
	BlockchainURL string   `mapstructure:"blockchain_url" validate:"omitempty,url"`
	HistoryURL    string   `mapstructure:"history_url" validate:"omitempty,url"`
	Node          string   `mapstructure:"node" validate:"omitempty,url"`
	Nodes         []string `mapstructure:"nodes" validate:"omitempty,dive,url"`
	NativeCoin    string   `mapstructure:"native_coin" validate:"omitempty,token_symbol"`
	LogLevel      string   `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	CacheDisabled bool     `mapstructure:"cache_disabled"`
}

// Normalize converts the single node shorthand into the nodes list. An
// explicit nodes list takes precedence. Both empty is fine: the per-network
// defaults apply.
func (c *Config) Normalize() error {
	if c.Node != "" && len(c.Nodes) == 0 {
		c.Nodes = []string{c.Node}
	}
	c.Node = ""
	return nil
}

// Engine converts the CLI config into a steemengine client config, starting
// from the network's defaults and overriding only what is set.
func (c *Config) Engine() (steemengine.Config, error) {
	cfg := steemengine.DefaultConfig(c.Network)
	if c.RPCURL != "" {
		cfg.RPCURL = c.RPCURL
	}
	if c.BlockchainURL != "" {
		cfg.BlockchainURL = c.BlockchainURL
	}
	if c.HistoryURL != "" {
		cfg.HistoryURL = c.HistoryURL
	}
	if len(c.Nodes) > 0 {
		cfg.Nodes = c.Nodes
	}
	if c.NativeCoin != "" {
		cfg.NativeCoin = c.NativeCoin
	}
	cfg.CacheDisabled = c.CacheDisabled
	if err := cfg.Validate(); err != nil {
		return steemengine.Config{}, fmt.Errorf("config conversion failed: %w", err)
	}
	return cfg, nil
}

var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.]{0,11}$`)

// tokenSymbolValidator validates side-chain token symbols
func tokenSymbolValidator(fl validator.FieldLevel) bool {
	return symbolPattern.MatchString(fl.Field().String())
}

// NewValidator creates a validator with custom validation rules
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("token_symbol", tokenSymbolValidator)
	return validate
}
