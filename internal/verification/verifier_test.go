package verification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/backtest"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage/memory"
)

func ptrInt64(v int64) *int64 { return &v }

func sampleSummary() *domain.BacktestSummary {
	return &domain.BacktestSummary{
		InitialEquity:  10000,
		FinalEquity:    10012.5,
		TotalPnL:       12.5,
		MaxDrawdownAbs: 3,
		MaxDrawdownPct: 0.03,
		WinRate:        0.5,
		PayoffRatio:    2,
		Sharpe:         0.4,
		NumTraders:     2,
		TotalSignals:   2,
		NumLegs:        2,
		Legs: []domain.Leg{
			{TradeID: "t1", Symbol: "BTC", Side: domain.SideLong, OpenTime: 1000, CloseTime: 2000, EntryPrice: 100, ExitPrice: 110, Notional: 100, PnL: 15.5},
			{TradeID: "t2", Symbol: "ETH", Side: domain.SideShort, OpenTime: 3000, CloseTime: 4000, EntryPrice: 50, ExitPrice: 51, Notional: 100, PnL: -3},
		},
	}
}

// fakeReplayer returns a fixed summary.
type fakeReplayer struct {
	summary *domain.BacktestSummary
	calls   int
}

func (f *fakeReplayer) Replay(context.Context, domain.BacktestParams) (*domain.BacktestSummary, error) {
	f.calls++
	return f.summary, nil
}

func TestCompareSummaries_ExactMatch(t *testing.T) {
	assert.Empty(t, CompareSummaries(sampleSummary(), sampleSummary()))
}

func TestCompareSummaries_WithinTolerance(t *testing.T) {
	replayed := sampleSummary()
	replayed.TotalPnL += FloatTolerance / 2
	replayed.Legs[0].PnL += FloatTolerance / 2
	assert.Empty(t, CompareSummaries(sampleSummary(), replayed))
}

func TestCompareSummaries_Divergences(t *testing.T) {
	replayed := sampleSummary()
	replayed.TotalPnL = 20
	replayed.Halted = true
	replayed.HaltedAt = ptrInt64(4000)
	replayed.Legs[1].ExitPrice = 52
	replayed.Legs[1].TradeID = "t9"

	divs := CompareSummaries(sampleSummary(), replayed)
	fields := make([]string, 0, len(divs))
	for _, d := range divs {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{
		"TotalPnL", "Halted", "HaltedAt", "Legs[1].TradeID", "Legs[1].ExitPrice",
	}, fields)
}

func TestCompareSummaries_LegCountMismatch(t *testing.T) {
	replayed := sampleSummary()
	replayed.NumLegs = 1
	replayed.Legs = replayed.Legs[:1]

	divs := CompareSummaries(sampleSummary(), replayed)
	require.Len(t, divs, 1)
	assert.Equal(t, "NumLegs", divs[0].Field)
	assert.Equal(t, 2, divs[0].Expected)
	assert.Equal(t, 1, divs[0].Actual)
}

func TestRunVerifier_VerifyRun(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewBacktestRunStore()
	require.NoError(t, runs.Insert(ctx, &domain.BacktestRun{ID: "r1", Summary: *sampleSummary()}))

	t.Run("match", func(t *testing.T) {
		v := NewRunVerifier(runs, &fakeReplayer{summary: sampleSummary()})
		res, err := v.VerifyRun(ctx, "r1")
		require.NoError(t, err)
		assert.True(t, res.Match)
		assert.Equal(t, "r1", res.RunID)
		assert.InDelta(t, 12.5, res.ReplayedPnL, 1e-9)
	})

	t.Run("divergent", func(t *testing.T) {
		drifted := sampleSummary()
		drifted.TotalPnL = 0
		v := NewRunVerifier(runs, &fakeReplayer{summary: drifted})
		res, err := v.VerifyRun(ctx, "r1")
		require.NoError(t, err)
		assert.False(t, res.Match)
		require.Len(t, res.Divergences, 1)
		assert.Equal(t, "TotalPnL", res.Divergences[0].Field)
	})

	t.Run("unknown run", func(t *testing.T) {
		v := NewRunVerifier(runs, &fakeReplayer{summary: sampleSummary()})
		_, err := v.VerifyRun(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestRunVerifier_VerifyRecent(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewBacktestRunStore()
	require.NoError(t, runs.Insert(ctx, &domain.BacktestRun{ID: "a", Summary: *sampleSummary(), CreatedAt: 1}))
	stale := sampleSummary()
	stale.FinalEquity = 9000
	require.NoError(t, runs.Insert(ctx, &domain.BacktestRun{ID: "b", Summary: *stale, CreatedAt: 2}))

	replayer := &fakeReplayer{summary: sampleSummary()}
	report, err := NewRunVerifier(runs, replayer).VerifyRecent(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalRuns)
	assert.Equal(t, 1, report.MatchedRuns)
	assert.Equal(t, 1, report.DivergentRuns)
	assert.Equal(t, 2, replayer.calls)
}

func TestRunVerifier_BacktestRunnerRoundTrip(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	runner := backtest.NewRunner(backtest.Options{
		Trades:   stores.Trades,
		Universe: stores.Universe,
		Runs:     stores.BacktestRuns,
	})

	run, err := runner.Run(ctx, domain.BacktestRequest{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)

	res, err := NewRunVerifier(stores.BacktestRuns, runner).VerifyRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, res.Match, "divergences: %v", res.Divergences)
}
