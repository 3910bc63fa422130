// Package selection decides whether a trader profile is eligible for the
// smart universe and scores eligible profiles.
package selection

import "github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"

// Criterion names
const (
	CriterionMinTrades       = "min_trades"
	CriterionMinActiveDays   = "min_active_days"
	CriterionMinPayoffRatio  = "min_payoff_ratio"
	CriterionMinExpectancy   = "min_expectancy"
	CriterionMaxDrawdownPct  = "max_drawdown_pct"
	CriterionMinTradesPerDay = "min_trades_per_day"
	CriterionMaxSingleLossR  = "max_single_loss_r"
)

// Score weights. They sum to 1 so the score stays in [0,1].
const (
	WeightExpectancy = 0.4
	WeightPayoff     = 0.3
	WeightFrequency  = 0.2
	WeightDrawdown   = 0.1
)

// Evaluate applies the hard filters and, when all pass, computes the score.
// Ineligible profiles always score 0.
func Evaluate(p domain.TraderProfile, cfg domain.SelectionConfig) domain.SelectionResult {
	criteria := evaluateCriteria(p, cfg)

	for _, c := range criteria {
		if !c.Pass {
			return domain.SelectionResult{Eligible: false, Score: 0, Criteria: criteria}
		}
	}

	return domain.SelectionResult{
		Eligible: true,
		Score:    Score(p, cfg),
		Criteria: criteria,
	}
}

// evaluateCriteria evaluates the 7 hard filters.
func evaluateCriteria(p domain.TraderProfile, cfg domain.SelectionConfig) []domain.Criterion {
	return []domain.Criterion{
		{
			Name:      CriterionMinTrades,
			Threshold: float64(cfg.MinTrades),
			Actual:    float64(p.NumTrades),
			Pass:      p.NumTrades >= cfg.MinTrades,
		},
		{
			Name:      CriterionMinActiveDays,
			Threshold: float64(cfg.MinActiveDays),
			Actual:    float64(p.ActiveDays),
			Pass:      p.ActiveDays >= cfg.MinActiveDays,
		},
		{
			Name:      CriterionMinPayoffRatio,
			Threshold: cfg.MinPayoffRatio,
			Actual:    p.PayoffRatio,
			Pass:      p.PayoffRatio >= cfg.MinPayoffRatio,
		},
		{
			// strictly greater
			Name:      CriterionMinExpectancy,
			Threshold: cfg.MinExpectancy,
			Actual:    p.Expectancy,
			Pass:      p.Expectancy > cfg.MinExpectancy,
		},
		{
			Name:      CriterionMaxDrawdownPct,
			Threshold: cfg.MaxDrawdownPct,
			Actual:    p.MaxDrawdownPct,
			Pass:      p.MaxDrawdownPct <= cfg.MaxDrawdownPct,
		},
		{
			Name:      CriterionMinTradesPerDay,
			Threshold: cfg.MinTradesPerDay,
			Actual:    p.TradesPerDay,
			Pass:      p.TradesPerDay >= cfg.MinTradesPerDay,
		},
		{
			Name:      CriterionMaxSingleLossR,
			Threshold: -cfg.MaxSingleLossR,
			Actual:    p.MinTradeR,
			Pass:      p.MinTradeR >= -cfg.MaxSingleLossR,
		},
	}
}

// Score computes the weighted composite score of a profile, ignoring the
// hard filters. Each component is clamped to [0,1] before weighting; a
// component whose target is not positive contributes 0, and the drawdown
// component is 1 when the drawdown limit is not positive.
func Score(p domain.TraderProfile, cfg domain.SelectionConfig) float64 {
	expectancy := ratio(p.Expectancy, cfg.TargetExpectancy)
	payoff := ratio(p.PayoffRatio, cfg.TargetPayoff)
	frequency := ratio(p.TradesPerDay, cfg.TargetTradesPerDay)

	drawdown := 1.0
	if cfg.MaxDrawdownPct > 0 {
		drawdown = clamp01(1 - p.MaxDrawdownPct/cfg.MaxDrawdownPct)
	}

	return WeightExpectancy*expectancy +
		WeightPayoff*payoff +
		WeightFrequency*frequency +
		WeightDrawdown*drawdown
}

func ratio(actual, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return clamp01(actual / target)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
