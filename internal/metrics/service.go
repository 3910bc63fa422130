package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// Service loads a trader's trades for a lookback window and profiles them.
type Service struct {
	trades storage.TradeStore
	now    func() time.Time
}

// NewService creates a metrics service. now may be nil for time.Now.
func NewService(trades storage.TradeStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{trades: trades, now: now}
}

// ComputeForTrader profiles all trades of traderID with opened_at >= now - windowDays.
func (s *Service) ComputeForTrader(ctx context.Context, traderID int64, windowDays int) (domain.TraderProfile, error) {
	if windowDays <= 0 {
		return domain.TraderProfile{}, fmt.Errorf("%w: window_days must be positive", domain.ErrInvalidInput)
	}

	since := s.now().Add(-time.Duration(windowDays) * 24 * time.Hour).UnixMilli()
	trades, err := s.trades.GetByTrader(ctx, traderID, since)
	if err != nil {
		return domain.TraderProfile{}, fmt.Errorf("load trades for trader %d: %w", traderID, err)
	}
	return ComputeProfile(trades), nil
}
