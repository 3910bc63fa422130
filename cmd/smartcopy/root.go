package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/config"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/logging"
)

// globals are resolved once in the root PersistentPreRunE.
type globals struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

// Execute builds the command tree and runs it.
func Execute(ctx context.Context) error {
	g := &globals{}
	root := &cobra.Command{
		Use:           "smartcopy",
		Short:         "Hyperliquid smart-money copy trading",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			if g.logLevel != "" {
				cfg.Log.Level = g.logLevel
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			g.cfg = cfg
			g.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.logger != nil {
				_ = g.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML config file (env and .env still apply)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		serveCmd(g),
		migrateCmd(g),
		refreshUniverseCmd(g),
		backtestCmd(g),
		riskStatusCmd(g),
		forceLiquidateCmd(g),
		syncTradersCmd(g),
		loadCSVCmd(g),
		seedCmd(g),
		replaySignalsCmd(g),
		verifyBacktestCmd(g),
	)
	return root.ExecuteContext(ctx)
}
