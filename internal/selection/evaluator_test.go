package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// strongProfile passes every default filter.
func strongProfile() domain.TraderProfile {
	return domain.TraderProfile{
		NumTrades:      500,
		ActiveDays:     42,
		TradesPerDay:   12,
		PayoffRatio:    3.0,
		Expectancy:     0.03,
		MaxDrawdownPct: 0.1,
		MinTradeR:      -1.0,
	}
}

func TestEvaluate_StrongTraderEligible(t *testing.T) {
	res := Evaluate(strongProfile(), domain.DefaultSelectionConfig())

	require.True(t, res.Eligible)
	assert.Greater(t, res.Score, 0.8)
	// 0.4 + 0.3 + 0.2 + 0.1 * (1 - 0.1/0.3)
	assert.InDelta(t, 0.9+0.1*(2.0/3.0), res.Score, 1e-9)
	assert.Empty(t, res.FailedCriteria())
	assert.Len(t, res.Criteria, 7)
}

func TestEvaluate_EachFilterRejects(t *testing.T) {
	cfg := domain.DefaultSelectionConfig()

	tests := []struct {
		name   string
		mutate func(p *domain.TraderProfile)
		failed string
	}{
		{"too few trades", func(p *domain.TraderProfile) { p.NumTrades = 199 }, CriterionMinTrades},
		{"too few active days", func(p *domain.TraderProfile) { p.ActiveDays = 4 }, CriterionMinActiveDays},
		{"low payoff", func(p *domain.TraderProfile) { p.PayoffRatio = 1.49 }, CriterionMinPayoffRatio},
		{"expectancy equal to minimum", func(p *domain.TraderProfile) { p.Expectancy = 0.01 }, CriterionMinExpectancy},
		{"deep drawdown", func(p *domain.TraderProfile) { p.MaxDrawdownPct = 0.31 }, CriterionMaxDrawdownPct},
		{"low frequency", func(p *domain.TraderProfile) { p.TradesPerDay = 4.9 }, CriterionMinTradesPerDay},
		{"single large loss", func(p *domain.TraderProfile) { p.MinTradeR = -2.01 }, CriterionMaxSingleLossR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := strongProfile()
			tt.mutate(&p)

			res := Evaluate(p, cfg)

			assert.False(t, res.Eligible)
			assert.Zero(t, res.Score)
			assert.Equal(t, []string{tt.failed}, res.FailedCriteria())
		})
	}
}

func TestEvaluate_BoundaryValuesPass(t *testing.T) {
	cfg := domain.DefaultSelectionConfig()
	p := domain.TraderProfile{
		NumTrades:      cfg.MinTrades,
		ActiveDays:     cfg.MinActiveDays,
		TradesPerDay:   cfg.MinTradesPerDay,
		PayoffRatio:    cfg.MinPayoffRatio,
		Expectancy:     cfg.MinExpectancy + 1e-6,
		MaxDrawdownPct: cfg.MaxDrawdownPct,
		MinTradeR:      -cfg.MaxSingleLossR,
	}

	res := Evaluate(p, cfg)

	assert.True(t, res.Eligible)
	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 1.0)
}

func TestEvaluate_AllZeroProfileIneligible(t *testing.T) {
	res := Evaluate(domain.TraderProfile{}, domain.DefaultSelectionConfig())

	assert.False(t, res.Eligible)
	assert.Zero(t, res.Score)
}

func TestScore_Monotonic(t *testing.T) {
	cfg := domain.DefaultSelectionConfig()
	base := strongProfile()
	base.Expectancy = 0.011
	base.PayoffRatio = 1.6
	base.TradesPerDay = 5
	base.MaxDrawdownPct = 0.25
	baseScore := Evaluate(base, cfg).Score

	improvements := map[string]func(p *domain.TraderProfile){
		"expectancy": func(p *domain.TraderProfile) { p.Expectancy = 0.015 },
		"payoff":     func(p *domain.TraderProfile) { p.PayoffRatio = 2.0 },
		"frequency":  func(p *domain.TraderProfile) { p.TradesPerDay = 8 },
		"drawdown":   func(p *domain.TraderProfile) { p.MaxDrawdownPct = 0.05 },
	}

	for name, improve := range improvements {
		t.Run(name, func(t *testing.T) {
			p := base
			improve(&p)
			res := Evaluate(p, cfg)
			require.True(t, res.Eligible)
			assert.Greater(t, res.Score, baseScore)
		})
	}
}

func TestScore_ClampedAndBounded(t *testing.T) {
	cfg := domain.DefaultSelectionConfig()
	p := strongProfile()
	p.Expectancy = 10
	p.PayoffRatio = 100
	p.TradesPerDay = 1000
	p.MaxDrawdownPct = 0

	assert.InDelta(t, 1.0, Score(p, cfg), 1e-12)
}

func TestScore_NonPositiveTargets(t *testing.T) {
	cfg := domain.DefaultSelectionConfig()
	cfg.TargetExpectancy = 0
	cfg.TargetPayoff = -1
	cfg.TargetTradesPerDay = 0
	cfg.MaxDrawdownPct = 0

	// Only the drawdown component remains, and it is 1 when the limit is not positive.
	assert.InDelta(t, WeightDrawdown, Score(strongProfile(), cfg), 1e-12)
}
