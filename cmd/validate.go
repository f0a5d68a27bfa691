package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file syntax and values without contacting any node.`,
	RunE:  validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		return err
	}
	engineCfg, err := cfg.Engine()
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		return err
	}

	slog.Info("✓ Configuration valid",
		"network", engineCfg.Network,
		"rpc_url", engineCfg.RPCURL,
		"history_url", engineCfg.HistoryURL,
		"nodes", len(engineCfg.Nodes),
		"native_coin", engineCfg.NativeCoin,
		"log_level", cfg.LogLevel,
	)

	return nil
}
