package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

func TestBacktestRunStore_InsertGetList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBacktestRunStore(pool)
	ctx := context.Background()

	params, err := domain.BacktestRequest{StartDate: "2025-01-01", EndDate: "2025-01-31"}.Resolve()
	require.NoError(t, err)

	run := &domain.BacktestRun{
		ID:          "run-1",
		Name:        "january",
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		Params:      params,
		TotalPnL:    120.5,
		MaxDrawdown: 40,
		WinRate:     0.6,
		Sharpe:      0.3,
		Summary: domain.BacktestSummary{
			InitialEquity: 10000,
			FinalEquity:   10120.5,
			TotalPnL:      120.5,
			NumLegs:       2,
			EquityCurve:   []domain.EquityPoint{{Step: 0, Equity: 10000}, {Step: 1, Equity: 10120.5}},
			Legs: []domain.Leg{
				{SignalIndex: 0, Trader: "0xa", TradeID: "t1", Symbol: "BTC", Side: domain.SideLong, PnL: 100},
			},
		},
		CreatedAt: 1000,
	}
	require.NoError(t, store.Insert(ctx, run))
	assert.ErrorIs(t, store.Insert(ctx, run), storage.ErrDuplicateKey)
	require.NoError(t, store.Insert(ctx, &domain.BacktestRun{ID: "run-2", StartDate: "2025-02-01", EndDate: "2025-02-02", CreatedAt: 2000}))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "january", got.Name)
	assert.Equal(t, params, got.Params)
	assert.Len(t, got.Summary.EquityCurve, 2)
	require.Len(t, got.Summary.Legs, 1)
	assert.Equal(t, "t1", got.Summary.Legs[0].TradeID)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	runs, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)

	page, err := store.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "run-1", page[0].ID)
}
