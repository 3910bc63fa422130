// Package risk reports follower account equity and drawdown and records
// a risk event when the drawdown limit is breached.
package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/metrics"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/observability"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// DefaultInitialEquity is the follower account's starting equity.
const DefaultInitialEquity = 10000.0

// Monitor computes RiskState from the follower trade ledger.
// It reports only; closing positions is a separate action.
type Monitor struct {
	configs        storage.RiskConfigStore
	events         storage.RiskEventStore
	followerTrades storage.FollowerTradeStore
	initialEquity  float64
	defaultConfig  domain.RiskConfig

	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// Options for creating Monitor.
type Options struct {
	// Required stores
	Configs        storage.RiskConfigStore
	Events         storage.RiskEventStore
	FollowerTrades storage.FollowerTradeStore

	// InitialEquity defaults to DefaultInitialEquity
	InitialEquity float64
	// MaxDrawdownPct seeds the config row on first use; defaults to domain.DefaultMaxDrawdownPct
	MaxDrawdownPct float64

	// Optional
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
}

// NewMonitor creates a new risk Monitor.
func NewMonitor(opts Options) *Monitor {
	initial := opts.InitialEquity
	if initial <= 0 {
		initial = DefaultInitialEquity
	}
	maxDD := opts.MaxDrawdownPct
	if maxDD <= 0 {
		maxDD = domain.DefaultMaxDrawdownPct
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Monitor{
		configs:        opts.Configs,
		events:         opts.Events,
		followerTrades: opts.FollowerTrades,
		initialEquity:  initial,
		defaultConfig:  domain.RiskConfig{MaxDrawdownPct: maxDD},
		logger:         logger,
		metrics:        opts.Metrics,
		now:            now,
	}
}

// Fold replays closed follower trades in order from initial equity.
// Trades without pnl or closed_at are skipped.
func Fold(trades []*domain.FollowerTrade, initial float64) (*metrics.EquityTracker, int) {
	tracker := metrics.NewEquityTracker(initial)
	n := 0
	for _, t := range trades {
		if t.PnL == nil || t.ClosedAt == nil {
			continue
		}
		tracker.Apply(*t.PnL)
		n++
	}
	return tracker, n
}

// Status computes the current risk state. When the peak-relative drawdown
// reaches the configured threshold a MAX_DRAWDOWN_HIT event is appended.
func (m *Monitor) Status(ctx context.Context) (*domain.RiskState, error) {
	cfg, err := m.configs.GetOrCreate(ctx, m.defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("load risk config: %w", err)
	}

	closed, err := m.followerTrades.ListClosed(ctx)
	if err != nil {
		return nil, fmt.Errorf("list closed follower trades: %w", err)
	}
	tracker, n := Fold(closed, m.initialEquity)

	state := &domain.RiskState{
		Config:                *cfg,
		InitialEquity:         m.initialEquity,
		CurrentEquity:         tracker.Equity,
		MaxDrawdownAbs:        tracker.MaxDrawdownAbs,
		MaxDrawdownPct:        tracker.MaxDrawdownPct,
		MaxDrawdownPctInitial: tracker.DrawdownPctOfInitial(),
		ClosedTrades:          n,
		RiskTriggered:         tracker.MaxDrawdownPct >= cfg.MaxDrawdownPct,
	}

	if state.RiskTriggered {
		event := &domain.RiskEvent{
			ID:        uuid.NewString(),
			EventType: domain.RiskEventMaxDrawdownHit,
			Details: map[string]float64{
				"current_equity":   state.CurrentEquity,
				"max_drawdown_abs": state.MaxDrawdownAbs,
				"max_drawdown_pct": state.MaxDrawdownPct,
				"threshold":        cfg.MaxDrawdownPct,
			},
			CreatedAt: m.now().UnixMilli(),
		}
		if err := m.events.Insert(ctx, event); err != nil {
			return nil, fmt.Errorf("insert risk event: %w", err)
		}
		m.logger.Warn("max drawdown hit",
			zap.Float64("current_equity", state.CurrentEquity),
			zap.Float64("max_drawdown_pct", state.MaxDrawdownPct),
			zap.Float64("threshold", cfg.MaxDrawdownPct))
	}

	last, err := m.events.Latest(ctx)
	switch {
	case err == nil:
		state.LastEvent = last
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("load latest risk event: %w", err)
	}

	m.metrics.RecordRiskCheck(state.CurrentEquity, state.MaxDrawdownPct, state.RiskTriggered)
	return state, nil
}

// UpdateConfig changes the risk limits of the current config row.
func (m *Monitor) UpdateConfig(ctx context.Context, maxDrawdownPct float64, maxLeverage, maxPositionSize *float64) (*domain.RiskConfig, error) {
	if maxDrawdownPct <= 0 || maxDrawdownPct > 1 {
		return nil, fmt.Errorf("%w: max_drawdown_pct must be in (0,1]", domain.ErrInvalidInput)
	}
	cfg, err := m.configs.GetOrCreate(ctx, m.defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("load risk config: %w", err)
	}
	cfg.MaxDrawdownPct = maxDrawdownPct
	cfg.MaxLeveragePerSymbol = maxLeverage
	cfg.MaxPositionSizePerSymbol = maxPositionSize
	cfg.UpdatedAt = m.now().UnixMilli()
	if err := m.configs.Update(ctx, cfg); err != nil {
		return nil, fmt.Errorf("update risk config: %w", err)
	}
	return cfg, nil
}

// Events lists recorded risk events, newest first.
func (m *Monitor) Events(ctx context.Context, limit int) ([]*domain.RiskEvent, error) {
	return m.events.List(ctx, limit)
}
