package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/api"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/ingestion"
)

func serveCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the optional background trader sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			if a.cfg.Server.Mode != "" {
				gin.SetMode(a.cfg.Server.Mode)
			}

			if interval := a.cfg.SyncInterval(); interval > 0 {
				runner := ingestion.NewRunner(ingestion.RunnerOptions{
					Syncer: a.syncer,
					Request: ingestion.SyncRequest{
						WindowDays: a.cfg.Hyperliquid.SyncWindowDays,
						Limit:      a.cfg.Hyperliquid.SyncLimit,
					},
					Interval: interval,
					Logger:   a.logger.Named("sync-runner"),
				})
				go func() {
					if err := runner.Run(ctx); err != nil {
						a.logger.Warn("sync runner stopped", zap.Error(err))
					}
				}()
			}

			srv := api.New(api.Options{
				Traders:      a.stores.Traders,
				Universe:     a.universe,
				Signals:      a.signals,
				Execution:    a.execution,
				Risk:         a.risk,
				Backtests:    a.backtests,
				Syncer:       a.syncer,
				Gatherer:     a.registry,
				ReadTimeout:  time.Duration(a.cfg.Server.ReadTimeoutSeconds) * time.Second,
				WriteTimeout: time.Duration(a.cfg.Server.WriteTimeoutSeconds) * time.Second,
				Logger:       a.logger.Named("api"),
			})
			a.logger.Info("starting smartcopy", zap.String("storage", a.cfg.Storage.Backend), zap.String("execution", a.cfg.Execution.Client))
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}
