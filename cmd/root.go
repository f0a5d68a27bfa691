package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Privex/go-steemengine/internal/config"
	"github.com/Privex/go-steemengine/internal/logger"
	"github.com/Privex/go-steemengine/steemengine"
)

var (
	cfgFile  string
	logLevel string
	network  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "steemengine",
	Short: "SteemEngine / HiveEngine token network client",
	Long: `steemengine queries the SteemEngine and HiveEngine token networks: token
registrations, account balances, transfer history, order books, tickers and
side-chain transactions.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&network, "network", "", "token network (steem, hive)")
}

// loadConfig loads the CLI config and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if network != "" {
		cfg.Network = network
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger.Setup(cfg.LogLevel)
	return cfg, nil
}

// newClient builds the facade client every read command runs against.
func newClient() (*steemengine.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	engineCfg, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	return steemengine.New(engineCfg)
}
