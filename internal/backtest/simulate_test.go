package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

func legsWithPnL(pnls ...float64) []domain.Leg {
	legs := make([]domain.Leg, len(pnls))
	for i, p := range pnls {
		legs[i] = domain.Leg{Trader: "0xa", CloseTime: int64(i + 1), PnL: p}
	}
	return legs
}

func TestSimulate_EquityIsInitialPlusPnL(t *testing.T) {
	cfg := domain.DefaultExecutionConfig()

	out := Simulate(legsWithPnL(100, -50, 25), cfg, 0)

	assert.Len(t, out.Applied, 3)
	assert.False(t, out.Halted)
	assert.InDelta(t, 10075.0, out.Tracker.Equity, 1e-9)
	require.Len(t, out.Curve, 4)
	assert.Equal(t, 0, out.Curve[0].Step)
	assert.Equal(t, 3, out.Curve[3].Step)
}

func TestSimulate_HaltsOnDrawdown(t *testing.T) {
	cfg := domain.DefaultExecutionConfig()

	// 10000 -> 11000 -> 7000 (dd 4000/11000 >= 0.3) -> halted before +5000
	out := Simulate(legsWithPnL(1000, -4000, 5000), cfg, 0)

	assert.True(t, out.Halted)
	require.NotNil(t, out.HaltedAt)
	assert.Equal(t, int64(2), *out.HaltedAt)
	assert.Len(t, out.Applied, 2)
	assert.InDelta(t, 7000.0, out.Tracker.Equity, 1e-9)

	s := Summarize(out, cfg)
	assert.Equal(t, 2, s.NumLegs)
	assert.InDelta(t, 4000.0, s.MaxDrawdownAbs, 1e-9)
	assert.InDelta(t, 4000.0/11000.0, s.MaxDrawdownPct, 1e-12)
	assert.InDelta(t, -3000.0, s.TotalPnL, 1e-9)
}

func TestSimulate_HaltAtExactLimit(t *testing.T) {
	cfg := domain.DefaultExecutionConfig()

	out := Simulate(legsWithPnL(-3000, 100), cfg, 0)

	assert.True(t, out.Halted)
	assert.Len(t, out.Applied, 1)
}

func TestSummarize_Stats(t *testing.T) {
	cfg := domain.DefaultExecutionConfig()

	s := Summarize(Simulate(legsWithPnL(10, -5, 20), cfg, 0), cfg)

	assert.InDelta(t, 2.0/3.0, s.WinRate, 1e-12)
	assert.InDelta(t, 3.0, s.PayoffRatio, 1e-12)
	assert.InDelta(t, 25.0/3.0, s.Expectancy, 1e-12)
	assert.Greater(t, s.Sharpe, 0.0)
	assert.InDelta(t, 0.0025, s.TotalReturnPct, 1e-12)
}

func TestSummarize_NoLossesCapsPayoff(t *testing.T) {
	cfg := domain.DefaultExecutionConfig()

	s := Summarize(Simulate(legsWithPnL(10, 20), cfg, 0), cfg)

	assert.Equal(t, domain.PayoffRatioCap, s.PayoffRatio)
	assert.Equal(t, 1.0, s.WinRate)
}

func TestSummarize_SingleLegHasNoSharpe(t *testing.T) {
	cfg := domain.DefaultExecutionConfig()

	s := Summarize(Simulate(legsWithPnL(10), cfg, 0), cfg)

	assert.Equal(t, 0.0, s.Sharpe)
}

func TestDownsample(t *testing.T) {
	curve := make([]domain.EquityPoint, 1001)
	for i := range curve {
		curve[i] = domain.EquityPoint{Step: i, Equity: float64(i)}
	}

	out := Downsample(curve, 500)

	assert.LessOrEqual(t, len(out), 500)
	assert.Equal(t, 0, out[0].Step)
	assert.Equal(t, 1000, out[len(out)-1].Step)
	for i := 1; i < len(out); i++ {
		assert.Greater(t, out[i].Step, out[i-1].Step)
	}

	short := curve[:10]
	assert.Equal(t, short, Downsample(short, 500))
}

func TestDownsample_KeepsLastPoint(t *testing.T) {
	curve := make([]domain.EquityPoint, 12)
	for i := range curve {
		curve[i] = domain.EquityPoint{Step: i}
	}

	out := Downsample(curve, 5) // stride ceil(11/4)=3 -> 0,3,6,9 + 11

	steps := make([]int, len(out))
	for i, p := range out {
		steps[i] = p.Step
	}
	assert.Equal(t, []int{0, 3, 6, 9, 11}, steps)
}

func TestMatchTrade_TieBreak(t *testing.T) {
	sig := int64(1_000_000)
	window := int64(300_000)
	candidates := []*domain.Trade{
		{ID: "outside", OpenedAt: sig - window - 1},
		{ID: "early", OpenedAt: sig - 100_000},
		{ID: "b-late", OpenedAt: sig - 10_000},
		{ID: "a-late", OpenedAt: sig - 10_000},
		{ID: "after", OpenedAt: sig + 5},
	}

	got := matchTrade(candidates, sig, window)

	require.NotNil(t, got)
	assert.Equal(t, "a-late", got.ID)

	assert.Nil(t, matchTrade(candidates[:1], sig, window))
	assert.Equal(t, "early", matchTrade(candidates[:2], sig, window).ID)
}
