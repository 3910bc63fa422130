// Package universe maintains the smart-trader universe: one persisted
// profile and selection outcome per (trader, lookback window).
// Flow: trades → metrics profile → selection → upsert
package universe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/metrics"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/observability"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/selection"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// Service refreshes and queries universe entries.
type Service struct {
	traders  storage.TraderStore
	universe storage.UniverseStore
	profiler *metrics.Service
	cfg      domain.SelectionConfig

	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// Options for creating Service.
type Options struct {
	// Required stores
	Traders  storage.TraderStore
	Trades   storage.TradeStore
	Universe storage.UniverseStore

	// Selection thresholds; zero value means domain.DefaultSelectionConfig()
	Selection domain.SelectionConfig

	// Optional
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
}

// New creates a new universe Service.
func New(opts Options) *Service {
	cfg := opts.Selection
	if cfg == (domain.SelectionConfig{}) {
		cfg = domain.DefaultSelectionConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		traders:  opts.Traders,
		universe: opts.Universe,
		profiler: metrics.NewService(opts.Trades, now),
		cfg:      cfg,
		logger:   logger,
		metrics:  opts.Metrics,
		now:      now,
	}
}

// SelectionConfig returns the thresholds this service evaluates with.
func (s *Service) SelectionConfig() domain.SelectionConfig {
	return s.cfg
}

// Profile computes the trader's profile over windowDays without persisting it.
func (s *Service) Profile(ctx context.Context, traderID int64, windowDays int) (domain.TraderProfile, error) {
	if _, err := s.traders.GetByID(ctx, traderID); err != nil {
		return domain.TraderProfile{}, fmt.Errorf("get trader %d: %w", traderID, err)
	}
	return s.profiler.ComputeForTrader(ctx, traderID, windowDays)
}

// RefreshTrader recomputes and upserts the universe entry of one trader.
func (s *Service) RefreshTrader(ctx context.Context, traderID int64, windowDays int) (*domain.UniverseEntry, error) {
	trader, err := s.traders.GetByID(ctx, traderID)
	if err != nil {
		return nil, fmt.Errorf("get trader %d: %w", traderID, err)
	}
	return s.refresh(ctx, trader, windowDays)
}

func (s *Service) refresh(ctx context.Context, trader *domain.Trader, windowDays int) (*domain.UniverseEntry, error) {
	profile, err := s.profiler.ComputeForTrader(ctx, trader.ID, windowDays)
	if err != nil {
		return nil, err
	}

	snapshot := s.cfg
	snapshot.WindowDays = windowDays
	result := selection.Evaluate(profile, snapshot)

	now := s.now().UnixMilli()
	entry := &domain.UniverseEntry{
		TraderID:        trader.ID,
		Address:         trader.Address,
		WindowDays:      windowDays,
		Profile:         profile,
		Score:           result.Score,
		Eligible:        result.Eligible,
		FiltersSnapshot: snapshot,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.universe.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("upsert universe entry for trader %d: %w", trader.ID, err)
	}
	s.metrics.RecordEvaluation(result.Eligible)

	if !result.Eligible {
		s.logger.Debug("trader not eligible",
			zap.String("address", trader.Address),
			zap.Int("window_days", windowDays),
			zap.Strings("failed", result.FailedCriteria()))
	}
	return entry, nil
}

// RefreshAll recomputes every known trader for windowDays and returns the
// topN eligible traders by score.
func (s *Service) RefreshAll(ctx context.Context, windowDays, topN int) (*domain.RefreshSummary, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("%w: window_days must be positive", domain.ErrInvalidInput)
	}
	started := time.Now()

	traders, err := s.traders.List(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list traders: %w", err)
	}

	summary := &domain.RefreshSummary{
		WindowDays:   windowDays,
		TotalTraders: len(traders),
		TopTraders:   []domain.TopTrader{},
	}
	var eligible []*domain.UniverseEntry
	for _, trader := range traders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := s.refresh(ctx, trader, windowDays)
		if err != nil {
			return nil, err
		}
		if entry.Eligible {
			eligible = append(eligible, entry)
		}
	}
	summary.EligibleTraders = len(eligible)

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Score != eligible[j].Score {
			return eligible[i].Score > eligible[j].Score
		}
		return eligible[i].TraderID < eligible[j].TraderID
	})
	if topN > 0 && len(eligible) > topN {
		eligible = eligible[:topN]
	}
	for _, e := range eligible {
		summary.TopTraders = append(summary.TopTraders, toTopTrader(e))
	}

	s.metrics.RecordUniverseRefresh(strconv.Itoa(windowDays), summary.EligibleTraders, time.Since(started).Seconds())
	s.logger.Info("universe refreshed",
		zap.Int("window_days", windowDays),
		zap.Int("total_traders", summary.TotalTraders),
		zap.Int("eligible_traders", summary.EligibleTraders))
	return summary, nil
}

func toTopTrader(e *domain.UniverseEntry) domain.TopTrader {
	return domain.TopTrader{
		TraderID:     e.TraderID,
		Address:      e.Address,
		Score:        e.Score,
		WinRate:      e.Profile.WinRate,
		PayoffRatio:  e.Profile.PayoffRatio,
		Expectancy:   e.Profile.Expectancy,
		TradesPerDay: e.Profile.TradesPerDay,
	}
}

// Entry returns the stored entry of traderID for windowDays.
// Returns storage.ErrNotFound if the trader or the entry does not exist.
func (s *Service) Entry(ctx context.Context, traderID int64, windowDays int) (*domain.UniverseEntry, error) {
	if _, err := s.traders.GetByID(ctx, traderID); err != nil {
		return nil, fmt.Errorf("get trader %d: %w", traderID, err)
	}
	entry, err := s.universe.Get(ctx, traderID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("get universe entry for trader %d: %w", traderID, err)
	}
	return entry, nil
}

// List returns stored entries matching the filter, ordered by score DESC.
func (s *Service) List(ctx context.Context, f domain.UniverseFilter) ([]*domain.UniverseEntry, error) {
	if f.WindowDays <= 0 {
		f.WindowDays = s.cfg.WindowDays
	}
	return s.universe.List(ctx, f)
}

// EligibleSet is the eligible universe of one window.
type EligibleSet struct {
	Traders   []*domain.Trader // score DESC
	Addresses map[string]struct{}
}

// Eligible loads the eligible traders for windowDays (the configured window
// when windowDays <= 0).
func (s *Service) Eligible(ctx context.Context, windowDays int) (*EligibleSet, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.WindowDays
	}
	entries, err := s.universe.List(ctx, domain.UniverseFilter{WindowDays: windowDays, EligibleOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list eligible entries: %w", err)
	}
	set := &EligibleSet{
		Traders:   make([]*domain.Trader, 0, len(entries)),
		Addresses: make(map[string]struct{}, len(entries)),
	}
	for _, e := range entries {
		set.Traders = append(set.Traders, &domain.Trader{ID: e.TraderID, Address: e.Address})
		set.Addresses[e.Address] = struct{}{}
	}
	return set, nil
}

// IsEligible reports whether address has an eligible entry for the configured window.
// Unknown addresses are not eligible.
func (s *Service) IsEligible(ctx context.Context, address string) (bool, error) {
	trader, err := s.traders.GetByAddress(ctx, address)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	entry, err := s.universe.Get(ctx, trader.ID, s.cfg.WindowDays)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return entry.Eligible, nil
}
