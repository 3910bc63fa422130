// Package backtest replays historical trades of smart traders through an
// isolated signal engine and simulates a follower copying every signal.
// Flow: universe rows → trades → signals → legs → equity curve → summary
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/observability"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/replay"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/signal"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// Runner executes backtests.
type Runner struct {
	replayRunner *replay.Runner
	universe     storage.UniverseStore
	runs         storage.BacktestRunStore
	strategy     domain.StrategyConfig
	execution    domain.ExecutionConfig

	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// Options for creating Runner.
type Options struct {
	// Required stores
	Trades   storage.TradeStore
	Universe storage.UniverseStore

	// Runs persists results when set
	Runs storage.BacktestRunStore

	// Base configs that request overrides are merged onto; zero values
	// select domain.DefaultStrategyConfig and domain.DefaultExecutionConfig.
	Strategy  domain.StrategyConfig
	Execution domain.ExecutionConfig

	// Optional
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
}

// NewRunner creates a new backtest runner.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	strategy := opts.Strategy
	if strategy == (domain.StrategyConfig{}) {
		strategy = domain.DefaultStrategyConfig()
	}
	execution := opts.Execution
	if execution == (domain.ExecutionConfig{}) {
		execution = domain.DefaultExecutionConfig()
	}
	return &Runner{
		replayRunner: replay.NewRunner(opts.Trades),
		strategy:     strategy,
		execution:    execution,
		universe:     opts.Universe,
		runs:         opts.Runs,
		logger:       logger,
		metrics:      opts.Metrics,
		now:          now,
	}
}

// Run resolves req, replays history and returns the run.
// A run with no qualifying traders is valid and zero-valued.
func (r *Runner) Run(ctx context.Context, req domain.BacktestRequest) (*domain.BacktestRun, error) {
	started := time.Now()
	params, err := req.ResolveWith(r.strategy, r.execution)
	if err != nil {
		r.metrics.RecordBacktest("invalid", 0, time.Since(started).Seconds())
		return nil, err
	}

	summary, err := r.execute(ctx, params)
	if err != nil {
		r.metrics.RecordBacktest("error", 0, time.Since(started).Seconds())
		return nil, err
	}

	run := &domain.BacktestRun{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		Params:      params,
		TotalPnL:    summary.TotalPnL,
		MaxDrawdown: summary.MaxDrawdownAbs,
		WinRate:     summary.WinRate,
		Sharpe:      summary.Sharpe,
		Summary:     *summary,
		CreatedAt:   r.now().UnixMilli(),
	}

	if r.runs != nil {
		if err := r.runs.Insert(ctx, run); err != nil {
			return nil, fmt.Errorf("insert backtest run: %w", err)
		}
	}

	r.metrics.RecordBacktest("ok", summary.NumLegs, time.Since(started).Seconds())
	r.logger.Info("backtest finished",
		zap.String("run_id", run.ID),
		zap.Int("traders", summary.NumTraders),
		zap.Int("signals", summary.TotalSignals),
		zap.Int("legs", summary.NumLegs),
		zap.Bool("halted", summary.Halted),
		zap.Float64("final_equity", summary.FinalEquity))
	return run, nil
}

// execute runs the replay for resolved params without persisting anything.
func (r *Runner) execute(ctx context.Context, p domain.BacktestParams) (*domain.BacktestSummary, error) {
	traders, err := r.selectTraders(ctx, p)
	if err != nil {
		return nil, err
	}

	addresses := make([]string, 0, len(traders))
	for _, t := range traders {
		addresses = append(addresses, t.Address)
	}
	signals, err := signal.NewEngine(p.Strategy, signal.NewAddressSet(addresses...))
	if err != nil {
		return nil, err
	}

	engine := NewEngine(signals)
	events, err := r.replayRunner.Run(ctx, traders, p.StartMs, p.EndMs, engine)
	if err != nil {
		return nil, fmt.Errorf("replay trades: %w", err)
	}
	results := engine.Results()

	legs, dropped := buildLegs(results.Signals, indexEvents(events), p)
	outcome := Simulate(legs, p.Execution, p.StartMs)
	summary := Summarize(outcome, p.Execution)

	summary.NumTraders = len(traders)
	summary.TotalSignals = results.SignalCount
	summary.DroppedLegs = dropped
	params := p
	summary.Params = &params

	if outcome.Halted {
		r.logger.Warn("backtest halted by drawdown limit",
			zap.Int64("halted_at", *outcome.HaltedAt),
			zap.Float64("max_drawdown_pct", summary.MaxDrawdownPct),
			zap.Float64("limit", p.Execution.MaxDrawdownPct))
	}
	return &summary, nil
}

// Replay recomputes the summary of resolved params against current storage.
// Nothing is persisted.
func (r *Runner) Replay(ctx context.Context, p domain.BacktestParams) (*domain.BacktestSummary, error) {
	return r.execute(ctx, p)
}

// selectTraders loads universe rows for the window and optional filters.
// Eligibility is not required; min_score and min_trades_per_day narrow the set.
func (r *Runner) selectTraders(ctx context.Context, p domain.BacktestParams) ([]*domain.Trader, error) {
	entries, err := r.universe.List(ctx, domain.UniverseFilter{
		WindowDays:      p.WindowDays,
		MinScore:        p.MinScore,
		MinTradesPerDay: p.MinTradesPerDay,
	})
	if err != nil {
		return nil, fmt.Errorf("list universe: %w", err)
	}

	traders := make([]*domain.Trader, 0, len(entries))
	for _, e := range entries {
		traders = append(traders, &domain.Trader{ID: e.TraderID, Address: e.Address})
	}
	return traders, nil
}

// Get retrieves a stored run.
func (r *Runner) Get(ctx context.Context, id string) (*domain.BacktestRun, error) {
	if r.runs == nil {
		return nil, storage.ErrNotFound
	}
	return r.runs.GetByID(ctx, id)
}

// List retrieves stored runs, newest first.
func (r *Runner) List(ctx context.Context, limit, offset int) ([]*domain.BacktestRun, error) {
	if r.runs == nil {
		return []*domain.BacktestRun{}, nil
	}
	return r.runs.List(ctx, limit, offset)
}
