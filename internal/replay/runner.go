package replay

import (
	"context"
	"fmt"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// Runner loads trades from storage and replays them in deterministic order.
type Runner struct {
	tradeStore storage.TradeStore
}

// NewRunner creates a new replay runner.
func NewRunner(tradeStore storage.TradeStore) *Runner {
	return &Runner{tradeStore: tradeStore}
}

// Load returns the sorted events of traders opened within [from, to].
func (r *Runner) Load(ctx context.Context, traders []*domain.Trader, from, to int64) ([]*Event, error) {
	if len(traders) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(traders))
	addresses := make(map[int64]string, len(traders))
	for _, t := range traders {
		ids = append(ids, t.ID)
		addresses[t.ID] = t.Address
	}

	trades, err := r.tradeStore.GetByTradersTimeRange(ctx, ids, from, to)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	return BuildEvents(trades, addresses), nil
}

// Run loads trades of traders within [from, to] and replays them through the engine.
// Returns the replayed events.
func (r *Runner) Run(ctx context.Context, traders []*domain.Trader, from, to int64, engine ReplayEngine) ([]*Event, error) {
	events, err := r.Load(ctx, traders, from, to)
	if err != nil {
		return nil, err
	}

	for _, event := range events {
		if err := engine.OnEvent(ctx, event); err != nil {
			return nil, err
		}
	}
	return events, nil
}
