package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/hyperliquid"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/ingestion/stub"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage/memory"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/universe"
)

var syncNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// orderValidatingTradeStore wraps a TradeStore and validates ordering in InsertBulk.
type orderValidatingTradeStore struct {
	storage.TradeStore
}

func (s *orderValidatingTradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if err := ValidateTradeOrdering(trades); err != nil {
		return err
	}
	return s.TradeStore.InsertBulk(ctx, trades)
}

func fill(coin string, side domain.Side, px float64, pnl float64, daysAgo int, tid string) hyperliquid.Fill {
	return hyperliquid.Fill{
		Coin:      coin,
		Side:      side,
		Price:     decimal.NewFromFloat(px),
		Size:      decimal.NewFromInt(1),
		Time:      syncNow.Add(-time.Duration(daysAgo) * 24 * time.Hour).UnixMilli(),
		ClosedPnL: decimal.NewFromFloat(pnl),
		FillID:    tid,
	}
}

type syncFixture struct {
	stores   *storage.Stores
	universe *universe.Service
	fills    *stub.StubFillSource
}

func newSyncer(t *testing.T, fills map[string][]hyperliquid.Fill, candidates CandidateSource) (*Syncer, *syncFixture) {
	t.Helper()
	stores := memory.NewStores()
	now := func() time.Time { return syncNow }
	uni := universe.New(universe.Options{
		Traders:  stores.Traders,
		Trades:   stores.Trades,
		Universe: stores.Universe,
		Now:      now,
	})
	src := stub.NewStubFillSource(fills)
	s := NewSyncer(SyncerOptions{
		Fills:      src,
		Candidates: candidates,
		Traders:    stores.Traders,
		Trades:     &orderValidatingTradeStore{TradeStore: stores.Trades},
		Universe:   uni,
		Now:        now,
	})
	return s, &syncFixture{stores: stores, universe: uni, fills: src}
}

func TestSyncer_ExplicitAddresses(t *testing.T) {
	fills := map[string][]hyperliquid.Fill{
		"0xa": {
			fill("ETH", domain.SideShort, 2000, -10, 2, "3"),
			fill("BTC", domain.SideLong, 100, 5, 5, "1"),
			fill("BTC", domain.SideLong, 110, 2, 3, "2"),
		},
		"0xb": {
			fill("SOL", domain.SideLong, 20, 1, 1, "9"),
			fill("SOL", domain.SideLong, 20, 1, 45, "10"), // outside the window
		},
	}
	s, fx := newSyncer(t, fills, nil)
	ctx := context.Background()

	res, err := s.Sync(ctx, SyncRequest{Addresses: []string{"0xa", " 0xb ", "0xA", ""}})
	require.NoError(t, err)
	assert.Equal(t, SourceRequest, res.Source)
	assert.Equal(t, 2, res.TradersSynced)
	assert.Equal(t, 4, res.TradesInserted)
	assert.Zero(t, res.TradersFailed)
	assert.Equal(t, []string{"0xa", "0xb"}, fx.fills.Calls())

	trader, err := fx.stores.Traders.GetByAddress(ctx, "0xa")
	require.NoError(t, err)
	trades, err := fx.stores.Trades.GetByTrader(ctx, trader.ID, 0)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, "BTC", trades[0].Symbol)
	require.NotNil(t, trades[0].RealizedPnL)
	assert.InDelta(t, 5.0, *trades[0].RealizedPnL, 1e-9)

	entry, err := fx.stores.Universe.Get(ctx, trader.ID, DefaultSyncWindowDays)
	require.NoError(t, err)
	assert.Equal(t, "0xa", entry.Address)
	assert.Equal(t, 3, entry.Profile.NumTrades)
}

func TestSyncer_ResyncSkipsExistingTrades(t *testing.T) {
	fills := map[string][]hyperliquid.Fill{
		"0xa": {
			fill("BTC", domain.SideLong, 100, 5, 5, "1"),
			fill("BTC", domain.SideLong, 100, 5, 5, "1"), // same fill twice
		},
	}
	s, _ := newSyncer(t, fills, nil)
	ctx := context.Background()

	res, err := s.Sync(ctx, SyncRequest{Addresses: []string{"0xa"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TradesInserted)

	res, err = s.Sync(ctx, SyncRequest{Addresses: []string{"0xa"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TradersSynced)
	assert.Zero(t, res.TradesInserted)
}

func TestSyncer_LeaderboardCandidates(t *testing.T) {
	rows := []hyperliquid.LeaderboardRow{
		{Address: "0x1", NumTrades: 50},
		{Address: "0x2", NumTrades: 3},
		{Address: "0x3", NumTrades: 20},
		{Address: "0x4", NumTrades: 90},
	}
	fills := map[string][]hyperliquid.Fill{
		"0x1": {fill("BTC", domain.SideLong, 100, 1, 1, "1")},
	}
	s, fx := newSyncer(t, fills, stub.NewStubCandidateSource(rows, nil))

	res, err := s.Sync(context.Background(), SyncRequest{MinTrades: 10, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, SourceLeaderboard, res.Source)
	assert.Equal(t, []string{"0x1", "0x3"}, fx.fills.Calls())
	assert.Equal(t, 2, res.TradersSynced)
	assert.Equal(t, 1, res.TradesInserted)
}

func TestSyncer_FallsBackToUniverse(t *testing.T) {
	s, fx := newSyncer(t, nil, stub.NewStubCandidateSource(nil, errors.New("leaderboard down")))
	ctx := context.Background()

	for _, addr := range []string{"0xold1", "0xold2"} {
		trader, _, err := fx.stores.Traders.GetOrCreate(ctx, addr)
		require.NoError(t, err)
		_, err = fx.universe.RefreshTrader(ctx, trader.ID, DefaultSyncWindowDays)
		require.NoError(t, err)
	}
	// Entries of another window are not candidates.
	other, _, err := fx.stores.Traders.GetOrCreate(ctx, "0xother")
	require.NoError(t, err)
	_, err = fx.universe.RefreshTrader(ctx, other.ID, 7)
	require.NoError(t, err)

	res, err := s.Sync(ctx, SyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, SourceUniverse, res.Source)
	assert.ElementsMatch(t, []string{"0xold1", "0xold2"}, fx.fills.Calls())
	assert.Equal(t, 2, res.TradersSynced)
}

func TestSyncer_FailedTraderIsSkipped(t *testing.T) {
	fills := map[string][]hyperliquid.Fill{
		"0xok": {fill("BTC", domain.SideLong, 100, 1, 1, "1")},
	}
	s, fx := newSyncer(t, fills, nil)
	fx.fills.Fail("0xbad")

	res, err := s.Sync(context.Background(), SyncRequest{Addresses: []string{"0xbad", "0xok"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TradersSynced)
	assert.Equal(t, 1, res.TradersFailed)
	assert.Equal(t, 1, res.TradesInserted)
}

func TestSyncer_InvalidRequest(t *testing.T) {
	s, _ := newSyncer(t, nil, nil)

	_, err := s.Sync(context.Background(), SyncRequest{WindowDays: -1})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSyncer_ContextCanceled(t *testing.T) {
	s, fx := newSyncer(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Sync(ctx, SyncRequest{Addresses: []string{"0xa"}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fx.fills.Calls())
}

type recordingSink struct {
	events []domain.TradeEvent
}

func (r *recordingSink) Ingest(_ context.Context, ev domain.TradeEvent) (*domain.Signal, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	r.events = append(r.events, ev)
	if len(r.events)%2 == 0 {
		return &domain.Signal{Symbol: ev.Symbol, Side: ev.Side}, nil
	}
	return nil, nil
}

func TestSyncer_FeedsSinkInReplayOrder(t *testing.T) {
	fills := map[string][]hyperliquid.Fill{
		"0xb": {
			fill("BTC", domain.SideLong, 100, 1, 3, "1"),
			fill("BTC", domain.SideLong, 101, 1, 1, "2"),
		},
		"0xa": {
			fill("BTC", domain.SideLong, 100, 1, 3, "3"),
			fill("ETH", domain.SideShort, 0, 0, 2, "4"), // zero price never reaches the engine
		},
	}
	stores := memory.NewStores()
	now := func() time.Time { return syncNow }
	sink := &recordingSink{}
	s := NewSyncer(SyncerOptions{
		Fills:    stub.NewStubFillSource(fills),
		Traders:  stores.Traders,
		Trades:   stores.Trades,
		Universe: universe.New(universe.Options{Traders: stores.Traders, Trades: stores.Trades, Universe: stores.Universe, Now: now}),
		Sink:     sink,
		Now:      now,
	})

	res, err := s.Sync(context.Background(), SyncRequest{Addresses: []string{"0xb", "0xa"}})
	require.NoError(t, err)
	assert.Equal(t, 4, res.TradesInserted)
	assert.Equal(t, 1, res.SignalsEmitted)

	require.Len(t, sink.events, 3)
	assert.Equal(t, "0xa", sink.events[0].TraderAddress)
	assert.Equal(t, "0xb", sink.events[1].TraderAddress)
	assert.Equal(t, sink.events[0].Timestamp, sink.events[1].Timestamp)
	assert.Equal(t, "0xb", sink.events[2].TraderAddress)
	assert.Greater(t, sink.events[2].Timestamp, sink.events[1].Timestamp)
}
