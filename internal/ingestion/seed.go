package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/idhash"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// Sample data shape.
const (
	sampleMinTrades = 50
	sampleMaxTrades = 100
	sampleWinRate   = 0.6
	sampleDays      = 30
	sampleTraders   = 2
)

var defaultSampleAddresses = []string{"demo_trader_A", "demo_trader_B"}

var sampleRawData = json.RawMessage(`{"note":"seeded demo trade"}`)

// SeedOptions configures SeedSample.
type SeedOptions struct {
	Seed      int64
	Addresses []string // traders created when the table is empty
	Symbol    string   // default "BTC"
	Now       time.Time
}

// SeedResult reports what SeedSample wrote.
type SeedResult struct {
	Traders []*domain.Trader `json:"traders"`
	Trades  int              `json:"trades"`
}

// SeedSample writes deterministic demo trades for the same seed and Now.
// Demo traders are created only when no trader exists; otherwise the first
// two existing traders receive the trades. Each gets 50-100 trades over the
// last 30 days with roughly a 60% win rate, winners returning +1..5% and
// losers -0.5..2% of notional.
func SeedSample(ctx context.Context, traders storage.TraderStore, trades storage.TradeStore, opts SeedOptions) (*SeedResult, error) {
	if opts.Symbol == "" {
		opts.Symbol = "BTC"
	}
	if len(opts.Addresses) == 0 {
		opts.Addresses = defaultSampleAddresses
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}

	targets, err := seedTraders(ctx, traders, opts.Addresses)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	result := &SeedResult{Traders: targets}
	for _, trader := range targets {
		batch := sampleTrades(rng, trader, opts.Symbol, opts.Now)
		if err := orderBatch(batch); err != nil {
			return nil, fmt.Errorf("sample trades for %s: %w", trader.Address, err)
		}
		if err := trades.InsertBulk(ctx, batch); err != nil {
			return nil, fmt.Errorf("insert sample trades for %s: %w", trader.Address, err)
		}
		result.Trades += len(batch)
	}
	return result, nil
}

func seedTraders(ctx context.Context, traders storage.TraderStore, addresses []string) ([]*domain.Trader, error) {
	count, err := traders.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count traders: %w", err)
	}
	if count > 0 {
		existing, err := traders.List(ctx, sampleTraders, 0)
		if err != nil {
			return nil, fmt.Errorf("list traders: %w", err)
		}
		return existing, nil
	}

	created := make([]*domain.Trader, 0, len(addresses))
	for _, addr := range addresses {
		t, _, err := traders.GetOrCreate(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("create trader %s: %w", addr, err)
		}
		created = append(created, t)
	}
	return created, nil
}

func sampleTrades(rng *rand.Rand, trader *domain.Trader, symbol string, now time.Time) []*domain.Trade {
	n := sampleMinTrades + rng.Intn(sampleMaxTrades-sampleMinTrades+1)
	out := make([]*domain.Trade, 0, n)
	for i := 0; i < n; i++ {
		offset := time.Duration(uniform(rng, 0, sampleDays)*24*float64(time.Hour)) +
			time.Duration(uniform(rng, 0, 24*60)*float64(time.Minute))
		opened := now.Add(-offset)
		closed := opened.Add(time.Duration(uniform(rng, 5, 240) * float64(time.Minute)))

		side := domain.SideLong
		if rng.Intn(2) == 1 {
			side = domain.SideShort
		}
		entry := uniform(rng, 90000, 95000)
		size := uniform(rng, 0.01, 0.1)

		pct := uniform(rng, -0.02, -0.005)
		if rng.Float64() < sampleWinRate {
			pct = uniform(rng, 0.01, 0.05)
		}
		pnl := entry * size * pct

		// exit price consistent with the directional return
		exit := entry * (1 + pct)
		if side == domain.SideShort {
			exit = entry * (1 - pct)
		}

		openedMs := opened.UnixMilli()
		closedMs := closed.UnixMilli()
		out = append(out, &domain.Trade{
			ID:          idhash.ComputeTradeID(trader.Address, symbol, side, fmt.Sprintf("seed-%d", i), openedMs),
			TraderID:    trader.ID,
			Symbol:      symbol,
			Side:        side,
			Size:        size,
			EntryPrice:  entry,
			ExitPrice:   &exit,
			RealizedPnL: &pnl,
			OpenedAt:    openedMs,
			ClosedAt:    &closedMs,
			RawData:     sampleRawData,
		})
	}
	return out
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
