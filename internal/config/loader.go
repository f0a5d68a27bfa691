package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	v.SetDefault("network", "hive")
	v.SetDefault("log_level", "info")
	v.SetDefault("cache_disabled", false)

	// 2. Configure config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("STEEMENGINE")
	v.AutomaticEnv()

	// Map environment variables to config keys
	// STEEMENGINE_NETWORK -> network
	v.BindEnv("network", "STEEMENGINE_NETWORK")
	v.BindEnv("rpc_url", "STEEMENGINE_RPC_URL")
	v.BindEnv("blockchain_url", "STEEMENGINE_BLOCKCHAIN_URL")
	v.BindEnv("history_url", "STEEMENGINE_HISTORY_URL")
	v.BindEnv("node", "STEEMENGINE_NODE")
	v.BindEnv("nodes", "STEEMENGINE_NODES")
	v.BindEnv("native_coin", "STEEMENGINE_NATIVE_COIN")
	v.BindEnv("log_level", "STEEMENGINE_LOG_LEVEL")
	v.BindEnv("cache_disabled", "STEEMENGINE_CACHE_DISABLED")

	// 4. Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 5. Unmarshal into struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Special handling for comma-separated NODES env var
	if nodesEnv := v.GetString("nodes"); nodesEnv != "" {
		if strings.Contains(nodesEnv, ",") {
			nodes := strings.Split(nodesEnv, ",")
			for i := range nodes {
				nodes[i] = strings.TrimSpace(nodes[i])
			}
			cfg.Nodes = nodes
		}
	}

	// 6. Normalize: fold the single node shorthand into the nodes list
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("config normalization failed: %w", err)
	}

	// 7. Validate with validator
	validate := NewValidator()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
