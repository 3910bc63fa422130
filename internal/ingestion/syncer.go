// Package ingestion imports trader history into storage: venue fills via the
// Syncer, address lists from CSV exports, and deterministic sample data.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/observability"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/replay"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

const (
	DefaultSyncWindowDays = 30
	DefaultSyncLimit      = 50

	dayMs = int64(24 * time.Hour / time.Millisecond)
)

// Candidate sources reported in SyncResult.Source.
const (
	SourceRequest     = "request"
	SourceLeaderboard = "leaderboard"
	SourceUniverse    = "universe"
)

// DropDuplicate counts fills whose trade already exists.
const DropDuplicate = "duplicate"

// SyncRequest selects which traders to import.
type SyncRequest struct {
	Addresses  []string `json:"addresses,omitempty"` // explicit list; skips discovery
	WindowDays int      `json:"window_days"`         // lookback, default 30
	Limit      int      `json:"limit"`               // max discovered traders, default 50
	MinTrades  int      `json:"min_trades"`          // leaderboard filter, 0 disables
}

// SyncResult summarizes one sync.
type SyncResult struct {
	TradersSynced  int    `json:"traders_synced"`
	TradesInserted int    `json:"trades_inserted"`
	TradersFailed  int    `json:"traders_failed"`
	SignalsEmitted int    `json:"signals_emitted"`
	Source         string `json:"source"`
}

// TradeSink receives newly imported trades as signal engine input.
type TradeSink interface {
	Ingest(ctx context.Context, ev domain.TradeEvent) (*domain.Signal, error)
}

// Syncer imports venue fills of candidate traders.
// Flow: candidates → trader row → fills → new trades → universe refresh
type Syncer struct {
	fills      FillSource
	candidates CandidateSource
	traders    storage.TraderStore
	trades     storage.TradeStore
	universe   UniverseRefresher
	sink       TradeSink

	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// SyncerOptions contains configuration for creating a Syncer.
type SyncerOptions struct {
	Fills      FillSource
	Candidates CandidateSource // optional; nil skips the leaderboard
	Traders    storage.TraderStore
	Trades     storage.TradeStore
	Universe   UniverseRefresher
	Sink       TradeSink // optional; receives new trades in replay order

	Logger  *zap.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
}

// NewSyncer creates a new Syncer.
func NewSyncer(opts SyncerOptions) *Syncer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Syncer{
		fills:      opts.Fills,
		candidates: opts.Candidates,
		traders:    opts.Traders,
		trades:     opts.Trades,
		universe:   opts.Universe,
		sink:       opts.Sink,
		logger:     logger,
		metrics:    opts.Metrics,
		now:        now,
	}
}

// Sync imports the fills of the requested traders over the lookback window.
// Candidates come from req.Addresses, else the leaderboard, else the top
// universe entries of the window. A trader whose fills cannot be fetched is
// counted in TradersFailed and skipped.
func (s *Syncer) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	if req.WindowDays < 0 || req.Limit < 0 || req.MinTrades < 0 {
		return nil, fmt.Errorf("%w: negative sync parameter", domain.ErrInvalidInput)
	}
	if req.WindowDays == 0 {
		req.WindowDays = DefaultSyncWindowDays
	}
	if req.Limit == 0 {
		req.Limit = DefaultSyncLimit
	}

	addresses, source, err := s.resolveCandidates(ctx, req)
	if err != nil {
		return nil, err
	}

	endMs := s.now().UnixMilli()
	startMs := endMs - int64(req.WindowDays)*dayMs

	result := &SyncResult{Source: source}
	var imported []*domain.Trade
	owners := make(map[int64]string)
	for _, addr := range addresses {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		trader, inserted, err := s.syncTrader(ctx, addr, req.WindowDays, startMs, endMs)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.Warn("trader sync failed", zap.String("address", addr), zap.Error(err))
			result.TradersFailed++
			continue
		}
		result.TradersSynced++
		result.TradesInserted += len(inserted)
		owners[trader.ID] = trader.Address
		imported = append(imported, inserted...)
	}

	if s.sink != nil && len(imported) > 0 {
		emitted, err := s.feed(ctx, imported, owners)
		result.SignalsEmitted = emitted
		if err != nil {
			return result, err
		}
	}

	s.logger.Info("sync completed",
		zap.String("source", source),
		zap.Int("candidates", len(addresses)),
		zap.Int("traders_synced", result.TradersSynced),
		zap.Int("trades_inserted", result.TradesInserted),
		zap.Int("traders_failed", result.TradersFailed))
	return result, nil
}

func (s *Syncer) resolveCandidates(ctx context.Context, req SyncRequest) ([]string, string, error) {
	if len(req.Addresses) > 0 {
		return dedupeAddresses(req.Addresses), SourceRequest, nil
	}

	if s.candidates != nil {
		rows, err := s.candidates.Leaderboard(ctx, fmt.Sprintf("%dd", req.WindowDays), 0)
		if err != nil {
			s.logger.Warn("leaderboard unavailable, falling back to universe", zap.Error(err))
		}
		var addrs []string
		for _, r := range rows {
			if req.MinTrades > 0 && r.NumTrades < int64(req.MinTrades) {
				continue
			}
			addrs = append(addrs, r.Address)
		}
		addrs = dedupeAddresses(addrs)
		if len(addrs) > req.Limit {
			addrs = addrs[:req.Limit]
		}
		if len(addrs) > 0 {
			return addrs, SourceLeaderboard, nil
		}
	}

	entries, err := s.universe.List(ctx, domain.UniverseFilter{WindowDays: req.WindowDays, Limit: req.Limit})
	if err != nil {
		return nil, "", fmt.Errorf("list universe: %w", err)
	}
	addrs := make([]string, 0, len(entries))
	for _, e := range entries {
		addrs = append(addrs, e.Address)
	}
	return dedupeAddresses(addrs), SourceUniverse, nil
}

// feed replays imported trades into the sink in (opened_at, address, id) order.
func (s *Syncer) feed(ctx context.Context, trades []*domain.Trade, owners map[int64]string) (int, error) {
	events := replay.BuildEvents(trades, owners)
	emitted := 0
	for _, ev := range events {
		sig, err := s.sink.Ingest(ctx, ev.TradeEvent())
		if errors.Is(err, domain.ErrInvalidInput) {
			continue
		}
		if err != nil {
			return emitted, fmt.Errorf("feed trade %s: %w", ev.Trade.ID, err)
		}
		if sig != nil {
			emitted++
		}
	}
	return emitted, nil
}

// syncTrader imports one trader and returns the newly inserted trades.
func (s *Syncer) syncTrader(ctx context.Context, address string, windowDays int, startMs, endMs int64) (*domain.Trader, []*domain.Trade, error) {
	trader, created, err := s.traders.GetOrCreate(ctx, address)
	if err != nil {
		return nil, nil, fmt.Errorf("ensure trader: %w", err)
	}
	if created {
		s.logger.Debug("trader created", zap.String("address", address), zap.Int64("trader_id", trader.ID))
	}

	fills, dropped, err := s.fills.UserFillsByTime(ctx, address, startMs, endMs)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch fills: %w", err)
	}
	if dropped == nil {
		dropped = make(map[string]int)
	}

	seen := make(map[string]struct{}, len(fills))
	batch := make([]*domain.Trade, 0, len(fills))
	ids := make([]string, 0, len(fills))
	for _, f := range fills {
		t := f.Trade(trader.ID, address)
		if _, dup := seen[t.ID]; dup {
			dropped[DropDuplicate]++
			continue
		}
		seen[t.ID] = struct{}{}
		batch = append(batch, t)
		ids = append(ids, t.ID)
	}

	existing, err := s.trades.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("check existing trades: %w", err)
	}
	fresh := batch[:0]
	for _, t := range batch {
		if _, ok := existing[t.ID]; ok {
			dropped[DropDuplicate]++
			continue
		}
		fresh = append(fresh, t)
	}

	if err := orderBatch(fresh); err != nil {
		return nil, nil, err
	}

	if err := s.trades.InsertBulk(ctx, fresh); err != nil {
		return nil, nil, fmt.Errorf("insert trades: %w", err)
	}
	s.metrics.RecordFills(len(fresh), dropped)

	if _, err := s.universe.RefreshTrader(ctx, trader.ID, windowDays); err != nil {
		return nil, nil, fmt.Errorf("refresh universe: %w", err)
	}

	s.logger.Debug("trader synced",
		zap.String("address", address),
		zap.Int("fills", len(fills)),
		zap.Int("inserted", len(fresh)))
	return trader, fresh, nil
}

// dedupeAddresses trims, drops empties and keeps the first occurrence of each address.
func dedupeAddresses(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
