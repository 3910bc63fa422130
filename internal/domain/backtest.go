package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by backtest requests.
const DateLayout = "2006-01-02"

// ExecutionConfig controls how signals are turned into simulated legs.
type ExecutionConfig struct {
	InitialEquity     float64 `json:"initial_equity" yaml:"initial_equity"`
	NotionalPerSignal float64 `json:"notional_per_signal" yaml:"notional_per_signal"` // split evenly across contributing traders
	FeeRateBps        float64 `json:"fee_rate_bps" yaml:"fee_rate_bps"`
	MaxDrawdownPct    float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"` // halt limit, 0 means default
	MaxCurvePoints    int     `json:"max_curve_points" yaml:"max_curve_points"` // 0 means default
}

// DefaultExecutionConfig returns the default replay execution parameters.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		InitialEquity:     10000,
		NotionalPerSignal: 0.01,
		FeeRateBps:        5,
		MaxDrawdownPct:    0.3,
		MaxCurvePoints:    500,
	}
}

// Validate checks execution parameters after defaults are applied.
func (c ExecutionConfig) Validate() error {
	if c.InitialEquity <= 0 {
		return fmt.Errorf("%w: initial_equity must be positive", ErrInvalidInput)
	}
	if c.NotionalPerSignal <= 0 {
		return fmt.Errorf("%w: notional_per_signal must be positive", ErrInvalidInput)
	}
	if c.FeeRateBps < 0 {
		return fmt.Errorf("%w: fee_rate_bps must be non-negative", ErrInvalidInput)
	}
	if c.MaxDrawdownPct <= 0 || c.MaxDrawdownPct > 1 {
		return fmt.Errorf("%w: max_drawdown_pct must be in (0,1]", ErrInvalidInput)
	}
	if c.MaxCurvePoints < 2 {
		return fmt.Errorf("%w: max_curve_points must be at least 2", ErrInvalidInput)
	}
	return nil
}

// ExecutionOverrides is a partial ExecutionConfig; nil fields keep the base value.
type ExecutionOverrides struct {
	InitialEquity     *float64 `json:"initial_equity,omitempty"`
	NotionalPerSignal *float64 `json:"notional_per_signal,omitempty"`
	FeeRateBps        *float64 `json:"fee_rate_bps,omitempty"`
	MaxDrawdownPct    *float64 `json:"max_drawdown_pct,omitempty"`
	MaxCurvePoints    *int     `json:"max_curve_points,omitempty"`
}

// Apply merges o onto base.
func (o ExecutionOverrides) Apply(base ExecutionConfig) ExecutionConfig {
	c := base
	if o.InitialEquity != nil {
		c.InitialEquity = *o.InitialEquity
	}
	if o.NotionalPerSignal != nil {
		c.NotionalPerSignal = *o.NotionalPerSignal
	}
	if o.FeeRateBps != nil {
		c.FeeRateBps = *o.FeeRateBps
	}
	if o.MaxDrawdownPct != nil {
		c.MaxDrawdownPct = *o.MaxDrawdownPct
	}
	if o.MaxCurvePoints != nil {
		c.MaxCurvePoints = *o.MaxCurvePoints
	}
	return c
}

// BacktestRequest is the caller-facing input of a backtest run.
// Strategy and Execution override single fields of the base configs.
type BacktestRequest struct {
	Name            string           `json:"name,omitempty"`
	Description     string           `json:"description,omitempty"`
	StartDate       string           `json:"start_date"` // YYYY-MM-DD, inclusive
	EndDate         string           `json:"end_date"`   // YYYY-MM-DD, inclusive
	WindowDays      int              `json:"window_days"`
	MinScore        *float64         `json:"min_score,omitempty"`
	MinTradesPerDay *float64         `json:"min_trades_per_day,omitempty"`
	Strategy        *StrategyOverrides  `json:"strategy,omitempty"`
	Execution       *ExecutionOverrides `json:"execution,omitempty"`
}

// BacktestParams is a fully resolved backtest request. Defaults are applied
// exactly once, in Resolve; nothing downstream checks for missing values.
type BacktestParams struct {
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	StartMs         int64           `json:"start_ms"`
	EndMs           int64           `json:"end_ms"` // end date 23:59:59.999 UTC
	WindowDays      int             `json:"window_days"`
	MinScore        *float64        `json:"min_score,omitempty"`
	MinTradesPerDay *float64        `json:"min_trades_per_day,omitempty"`
	Strategy        StrategyConfig  `json:"strategy"`
	Execution       ExecutionConfig `json:"execution"`
}

// Resolve applies the package defaults and validates the request.
func (r BacktestRequest) Resolve() (BacktestParams, error) {
	return r.ResolveWith(DefaultStrategyConfig(), DefaultExecutionConfig())
}

// ResolveWith merges the request field by field onto strategy and execution
// and validates the result. Zero MaxDrawdownPct or MaxCurvePoints in the base
// fall back to the package defaults.
func (r BacktestRequest) ResolveWith(strategy StrategyConfig, execution ExecutionConfig) (BacktestParams, error) {
	start, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return BacktestParams{}, fmt.Errorf("%w: start_date: %v", ErrInvalidInput, err)
	}
	end, err := time.Parse(DateLayout, r.EndDate)
	if err != nil {
		return BacktestParams{}, fmt.Errorf("%w: end_date: %v", ErrInvalidInput, err)
	}
	if end.Before(start) {
		return BacktestParams{}, fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
	}

	p := BacktestParams{
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		StartMs:         start.UnixMilli(),
		EndMs:           end.Add(24*time.Hour).UnixMilli() - 1,
		WindowDays:      r.WindowDays,
		MinScore:        r.MinScore,
		MinTradesPerDay: r.MinTradesPerDay,
		Strategy:        strategy,
		Execution:       execution,
	}
	if p.WindowDays == 0 {
		p.WindowDays = DefaultSelectionConfig().WindowDays
	}
	defaults := DefaultExecutionConfig()
	if p.Execution.MaxDrawdownPct == 0 {
		p.Execution.MaxDrawdownPct = defaults.MaxDrawdownPct
	}
	if p.Execution.MaxCurvePoints == 0 {
		p.Execution.MaxCurvePoints = defaults.MaxCurvePoints
	}
	var (
		so StrategyOverrides
		eo ExecutionOverrides
	)
	if r.Strategy != nil {
		so = *r.Strategy
	}
	if r.Execution != nil {
		eo = *r.Execution
	}
	p.Strategy = so.Apply(p.Strategy)
	p.Execution = eo.Apply(p.Execution)

	if p.WindowDays < 0 {
		return BacktestParams{}, fmt.Errorf("%w: window_days must be positive", ErrInvalidInput)
	}
	if err := p.Strategy.Validate(); err != nil {
		return BacktestParams{}, err
	}
	if err := p.Execution.Validate(); err != nil {
		return BacktestParams{}, err
	}
	return p, nil
}

// Leg is one simulated single-trader position opened in response to a signal.
type Leg struct {
	SignalIndex int     `json:"signal_index"`
	Trader      string  `json:"trader"`
	TradeID     string  `json:"trade_id"` // historical trade used as the exit source
	Symbol      string  `json:"symbol"`
	Side        Side    `json:"side"`
	OpenTime    int64   `json:"open_time"`
	CloseTime   int64   `json:"close_time"`
	EntryPrice  float64 `json:"entry_price"`
	ExitPrice   float64 `json:"exit_price"`
	Notional    float64 `json:"notional"`
	R           float64 `json:"r"`
	GrossPnL    float64 `json:"gross_pnl"`
	Fee         float64 `json:"fee"`
	PnL         float64 `json:"pnl"` // net of fee
}

// EquityPoint is one point of an equity curve. Step increases monotonically.
type EquityPoint struct {
	Step   int     `json:"step"`
	Equity float64 `json:"equity"`
	Time   *int64  `json:"time,omitempty"`
}

// BacktestSummary is the stored result blob of a backtest run.
type BacktestSummary struct {
	InitialEquity  float64         `json:"initial_equity"`
	FinalEquity    float64         `json:"final_equity"`
	TotalPnL       float64         `json:"total_pnl"`
	TotalReturnPct float64         `json:"total_return_pct"`
	MaxDrawdownAbs float64         `json:"max_drawdown_abs"`
	MaxDrawdownPct float64         `json:"max_drawdown_pct"`
	WinRate        float64         `json:"win_rate"`
	PayoffRatio    float64         `json:"payoff_ratio"`
	Expectancy     float64         `json:"expectancy"` // mean net PnL per applied leg
	Sharpe         float64         `json:"sharpe"`     // mean / population stdev of leg PnL
	NumTraders     int             `json:"num_traders"`
	TotalSignals   int             `json:"total_signals"`
	NumLegs        int             `json:"num_legs"`     // applied legs
	DroppedLegs    int             `json:"dropped_legs"` // signal addresses without a closed match
	Halted         bool            `json:"halted"`
	HaltedAt       *int64          `json:"halted_at,omitempty"`
	EquityCurve    []EquityPoint   `json:"equity_curve"`
	Legs           []Leg           `json:"virtual_trades"`
	Params         *BacktestParams `json:"params_snapshot,omitempty"`
}

// BacktestRun is the persisted record of one replay.
// Corresponds to backtest_runs table.
type BacktestRun struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Params      BacktestParams  `json:"params"`
	TotalPnL    float64         `json:"total_pnl"`
	MaxDrawdown float64         `json:"max_drawdown"`
	WinRate     float64         `json:"win_rate"`
	Sharpe      float64         `json:"sharpe"`
	Summary     BacktestSummary `json:"summary"`
	CreatedAt   int64           `json:"created_at"`
}
