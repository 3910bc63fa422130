package storage

import (
	"context"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// TraderStore provides access to traders storage.
type TraderStore interface {
	// GetOrCreate returns the trader with the given address, creating it if absent.
	// created reports whether a new row was inserted.
	GetOrCreate(ctx context.Context, address string) (t *domain.Trader, created bool, err error)

	// GetByID retrieves a trader by ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Trader, error)

	// GetByAddress retrieves a trader by address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Trader, error)

	// List retrieves traders ordered by ID ASC. limit <= 0 means all.
	List(ctx context.Context, limit, offset int) ([]*domain.Trader, error)

	// Count returns the number of traders.
	Count(ctx context.Context) (int, error)
}

// TradeStore provides access to trades storage.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade ID exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// ExistingIDs returns the subset of ids already stored.
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)

	// GetByTrader retrieves trades of a trader with opened_at >= since, ordered by opened_at ASC.
	GetByTrader(ctx context.Context, traderID int64, since int64) ([]*domain.Trade, error)

	// GetByTradersTimeRange retrieves trades of the given traders with opened_at
	// within [start, end] (inclusive), ordered by opened_at ASC, then ID ASC.
	GetByTradersTimeRange(ctx context.Context, traderIDs []int64, start, end int64) ([]*domain.Trade, error)
}

// UniverseStore provides access to smart_trader_universe storage.
type UniverseStore interface {
	// Upsert inserts the entry or overwrites every derived field of the existing
	// (trader_id, window_days) row. created_at is preserved on update.
	Upsert(ctx context.Context, e *domain.UniverseEntry) error

	// Get retrieves the entry for (traderID, windowDays). Returns ErrNotFound if not exists.
	Get(ctx context.Context, traderID int64, windowDays int) (*domain.UniverseEntry, error)

	// List retrieves entries matching the filter ordered by score DESC, then trader_id ASC.
	List(ctx context.Context, f domain.UniverseFilter) ([]*domain.UniverseEntry, error)
}

// SignalStore provides access to signals storage.
type SignalStore interface {
	// Insert adds a new signal. Returns ErrDuplicateKey if ID exists.
	Insert(ctx context.Context, s *domain.Signal) error

	// GetByID retrieves a signal. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Signal, error)

	// MarkExecuted atomically flips executed false->true.
	// Returns domain.ErrSignalExecuted if it was already executed.
	MarkExecuted(ctx context.Context, id string, at int64) (*domain.Signal, error)

	// ListRecent retrieves the newest signals ordered by created_at DESC.
	ListRecent(ctx context.Context, limit int) ([]*domain.Signal, error)
}

// FollowerTradeStore provides access to follower_trades storage.
type FollowerTradeStore interface {
	// Insert adds a new follower trade. Returns ErrDuplicateKey if ID exists.
	Insert(ctx context.Context, t *domain.FollowerTrade) error

	// GetByID retrieves a follower trade. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.FollowerTrade, error)

	// Close atomically settles an open position.
	// Returns domain.ErrPositionClosed if it was already closed.
	Close(ctx context.Context, id string, exitPrice float64, closedAt int64) (*domain.FollowerTrade, error)

	// ListOpen retrieves open positions ordered by opened_at ASC, then ID ASC.
	ListOpen(ctx context.Context) ([]*domain.FollowerTrade, error)

	// ListClosed retrieves positions with a pnl and closed_at, ordered by closed_at ASC, then ID ASC.
	ListClosed(ctx context.Context) ([]*domain.FollowerTrade, error)
}

// RiskConfigStore provides access to risk_config storage.
type RiskConfigStore interface {
	// GetOrCreate returns the latest config, inserting def if none exists.
	GetOrCreate(ctx context.Context, def domain.RiskConfig) (*domain.RiskConfig, error)

	// Update overwrites the limits of an existing config. Returns ErrNotFound if not exists.
	Update(ctx context.Context, c *domain.RiskConfig) error
}

// RiskEventStore provides access to risk_events storage (append-only).
type RiskEventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if ID exists.
	Insert(ctx context.Context, e *domain.RiskEvent) error

	// Latest retrieves the newest event. Returns ErrNotFound if none.
	Latest(ctx context.Context) (*domain.RiskEvent, error)

	// List retrieves events ordered by created_at DESC.
	List(ctx context.Context, limit int) ([]*domain.RiskEvent, error)
}

// BacktestRunStore provides access to backtest_runs storage.
type BacktestRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if ID exists.
	Insert(ctx context.Context, r *domain.BacktestRun) error

	// GetByID retrieves a run. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.BacktestRun, error)

	// List retrieves runs ordered by created_at DESC, then ID.
	List(ctx context.Context, limit, offset int) ([]*domain.BacktestRun, error)
}

// Stores bundles every store the services need.
type Stores struct {
	Traders        TraderStore
	Trades         TradeStore
	Universe       UniverseStore
	Signals        SignalStore
	FollowerTrades FollowerTradeStore
	RiskConfigs    RiskConfigStore
	RiskEvents     RiskEventStore
	BacktestRuns   BacktestRunStore
}
