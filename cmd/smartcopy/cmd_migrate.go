package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/config"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage/migrations"
	pgstore "github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage/postgres"
)

func migrateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL and ClickHouse schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := g.cfg.Storage
			if cfg.Backend != config.BackendPostgres && cfg.ClickHouseDSN == "" {
				return errors.New("nothing to migrate: storage.backend is memory and no clickhouse_dsn is set")
			}

			if cfg.Backend == config.BackendPostgres {
				pool, err := pgstore.NewPoolWithOptions(ctx, cfg.PostgresDSN, pgstore.PoolOptions{MaxConns: cfg.MaxConns})
				if err != nil {
					return err
				}
				defer pool.Close()
				applied, err := migrations.RunPostgresMigrations(ctx, pool)
				if err != nil {
					return fmt.Errorf("postgres migrations: %w", err)
				}
				g.logger.Info("postgres migrations applied", zap.Strings("versions", applied))
			}

			if cfg.ClickHouseDSN != "" {
				conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
				if err != nil {
					return fmt.Errorf("clickhouse migrations: %w", err)
				}
				if err := conn.Close(); err != nil {
					g.logger.Warn("close clickhouse", zap.Error(err))
				}
				g.logger.Info("clickhouse migrations applied")
			}
			return nil
		},
	}
}
