package domain

import "fmt"

// SelectionConfig holds the named thresholds and targets used to decide
// eligibility and score. Stored verbatim as filters_snapshot.
type SelectionConfig struct {
	WindowDays         int     `json:"window_days" yaml:"window_days"`
	MinTrades          int     `json:"min_trades" yaml:"min_trades"`
	MinActiveDays      int     `json:"min_active_days" yaml:"min_active_days"`
	MinTradesPerDay    float64 `json:"min_trades_per_day" yaml:"min_trades_per_day"`
	MinExpectancy      float64 `json:"min_expectancy" yaml:"min_expectancy"`
	MinPayoffRatio     float64 `json:"min_payoff_ratio" yaml:"min_payoff_ratio"`
	MaxDrawdownPct     float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	MinScore           float64 `json:"min_score" yaml:"min_score"`
	MaxSingleLossR     float64 `json:"max_single_loss_r" yaml:"max_single_loss_r"`
	TargetExpectancy   float64 `json:"target_expectancy" yaml:"target_expectancy"`
	TargetPayoff       float64 `json:"target_payoff" yaml:"target_payoff"`
	TargetTradesPerDay float64 `json:"target_trades_per_day" yaml:"target_trades_per_day"`
}

// DefaultSelectionConfig returns the production selection thresholds.
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{
		WindowDays:         30,
		MinTrades:          200,
		MinActiveDays:      5,
		MinTradesPerDay:    5.0,
		MinExpectancy:      0.01,
		MinPayoffRatio:     1.5,
		MaxDrawdownPct:     0.3,
		MinScore:           0.7,
		MaxSingleLossR:     2.0,
		TargetExpectancy:   0.02,
		TargetPayoff:       2.5,
		TargetTradesPerDay: 10.0,
	}
}

// Validate checks that no threshold is negative and the window is positive.
func (c SelectionConfig) Validate() error {
	if c.WindowDays <= 0 {
		return fmt.Errorf("%w: window_days must be positive", ErrInvalidInput)
	}
	if c.MinTrades < 0 || c.MinActiveDays < 0 || c.MinTradesPerDay < 0 {
		return fmt.Errorf("%w: activity thresholds must be non-negative", ErrInvalidInput)
	}
	if c.MinPayoffRatio < 0 || c.MaxDrawdownPct < 0 || c.MaxSingleLossR < 0 {
		return fmt.Errorf("%w: risk thresholds must be non-negative", ErrInvalidInput)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("%w: min_score must be in [0,1]", ErrInvalidInput)
	}
	return nil
}

// Criterion is the outcome of one hard filter.
type Criterion struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"`
	Actual    float64 `json:"actual"`
	Pass      bool    `json:"pass"`
}

// SelectionResult is a pure function of a profile and a SelectionConfig.
// Score is in [0,1] when Eligible, 0 otherwise.
type SelectionResult struct {
	Eligible bool        `json:"eligible"`
	Score    float64     `json:"score"`
	Criteria []Criterion `json:"criteria,omitempty"`
}

// FailedCriteria returns the names of the filters that did not pass.
func (r SelectionResult) FailedCriteria() []string {
	var failed []string
	for _, c := range r.Criteria {
		if !c.Pass {
			failed = append(failed, c.Name)
		}
	}
	return failed
}
