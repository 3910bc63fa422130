package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/backtest"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/config"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/execution"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/hyperliquid"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/ingestion"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/observability"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/risk"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/signal"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
	chstore "github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage/clickhouse"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage/memory"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage/migrations"
	pgstore "github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage/postgres"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/universe"
)

const metricsNamespace = "smartcopy"

// app holds every wired component of one process.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	registry *prometheus.Registry
	metrics  *observability.Metrics
	stores   *storage.Stores

	universe  *universe.Service
	signals   *signal.Service
	execution *execution.Service
	risk      *risk.Monitor
	backtests *backtest.Runner
	venue     *hyperliquid.Client
	syncer    *ingestion.Syncer

	closers []func()
}

// newApp opens storage and builds the services from g's config.
func newApp(ctx context.Context, g *globals) (*app, error) {
	cfg, logger := g.cfg, g.logger

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := observability.NewMetrics(metricsNamespace, registry)

	a := &app{cfg: cfg, logger: logger, registry: registry, metrics: m}
	if err := a.openStores(ctx); err != nil {
		a.Close()
		return nil, err
	}
	stores := a.stores

	a.universe = universe.New(universe.Options{
		Traders:   stores.Traders,
		Trades:    stores.Trades,
		Universe:  stores.Universe,
		Selection: cfg.Selection,
		Logger:    logger.Named("universe"),
		Metrics:   m,
	})

	signals, err := signal.NewService(signal.ServiceOptions{
		Strategy:    cfg.Strategy,
		Eligibility: a.universe,
		Signals:     stores.Signals,
		Logger:      logger.Named("signal"),
		Metrics:     m,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create signal service: %w", err)
	}
	a.signals = signals

	client, err := execution.NewClient(cfg.Execution.Client, stores.FollowerTrades)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create execution client: %w", err)
	}
	a.execution = execution.NewService(execution.ServiceOptions{
		Client:      client,
		Signals:     stores.Signals,
		DefaultSize: cfg.Execution.DefaultSize,
		Logger:      logger.Named("execution"),
		Metrics:     m,
	})

	a.risk = risk.NewMonitor(risk.Options{
		Configs:        stores.RiskConfigs,
		Events:         stores.RiskEvents,
		FollowerTrades: stores.FollowerTrades,
		InitialEquity:  cfg.Risk.InitialEquity,
		MaxDrawdownPct: cfg.Risk.MaxDrawdownPct,
		Logger:         logger.Named("risk"),
		Metrics:        m,
	})

	a.backtests = backtest.NewRunner(backtest.Options{
		Trades:    stores.Trades,
		Universe:  stores.Universe,
		Runs:      stores.BacktestRuns,
		Strategy:  cfg.Strategy,
		Execution: cfg.Backtest,
		Logger:    logger.Named("backtest"),
		Metrics:   m,
	})

	a.venue = hyperliquid.NewClient(hyperliquid.Options{
		BaseURL:         cfg.Hyperliquid.BaseURL,
		RatePerSec:      cfg.Hyperliquid.RatePerSec,
		Timeout:         cfg.HyperliquidTimeout(),
		BreakerFailures: cfg.Hyperliquid.BreakerFailures,
		Logger:          logger.Named("hyperliquid"),
		Metrics:         m,
	})

	syncOpts := ingestion.SyncerOptions{
		Fills:      a.venue,
		Candidates: a.venue,
		Traders:    stores.Traders,
		Trades:     stores.Trades,
		Universe:   a.universe,
		Logger:     logger.Named("sync"),
		Metrics:    m,
	}
	if cfg.Hyperliquid.FeedSignals {
		syncOpts.Sink = a.signals
	}
	a.syncer = ingestion.NewSyncer(syncOpts)

	return a, nil
}

// openStores selects the storage backend. A ClickHouse DSN adds a trade
// history mirror behind the primary trade store.
func (a *app) openStores(ctx context.Context) error {
	cfg := a.cfg.Storage
	switch cfg.Backend {
	case config.BackendPostgres:
		pool, err := pgstore.NewPoolWithOptions(ctx, cfg.PostgresDSN, pgstore.PoolOptions{MaxConns: cfg.MaxConns})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pool.Close)
		if cfg.MigrateOnBoot {
			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				return fmt.Errorf("postgres migrations: %w", err)
			}
			if len(applied) > 0 {
				a.logger.Info("postgres migrations applied", zap.Strings("versions", applied))
			}
		}
		a.stores = pgstore.NewStores(pool)
	default:
		a.logger.Warn("using in-memory storage; data is lost on exit")
		a.stores = memory.NewStores()
	}

	if cfg.ClickHouseDSN == "" {
		return nil
	}
	var (
		conn *chstore.Conn
		err  error
	)
	if cfg.MigrateOnBoot {
		conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
	} else {
		conn, err = chstore.NewConn(ctx, cfg.ClickHouseDSN)
	}
	if err != nil {
		return fmt.Errorf("clickhouse: %w", err)
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })

	logger := a.logger.Named("clickhouse")
	a.stores.Trades = &storage.MirrorTradeStore{
		Primary: a.stores.Trades,
		Mirror:  chstore.NewTradeStore(conn),
		OnMirrorError: func(op string, err error) {
			logger.Warn("trade mirror write failed", zap.String("op", op), zap.Error(err))
		},
	}
	return nil
}

// Close releases storage connections in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
