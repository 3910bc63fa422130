package storage

import (
	"context"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// MirrorTradeStore writes trades to Primary and then copies them to Mirror.
// Reads are served by Primary only. A failed mirror write is reported to
// OnMirrorError and never fails the primary write.
type MirrorTradeStore struct {
	Primary       TradeStore
	Mirror        TradeStore
	OnMirrorError func(op string, err error)
}

// Compile-time interface check.
var _ TradeStore = (*MirrorTradeStore)(nil)

// Insert adds a trade to both stores.
func (s *MirrorTradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	if err := s.Primary.Insert(ctx, t); err != nil {
		return err
	}
	s.report("insert", s.Mirror.Insert(ctx, t))
	return nil
}

// InsertBulk adds a batch to both stores.
func (s *MirrorTradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if err := s.Primary.InsertBulk(ctx, trades); err != nil {
		return err
	}
	s.report("insert_bulk", s.Mirror.InsertBulk(ctx, trades))
	return nil
}

// ExistingIDs reads from Primary.
func (s *MirrorTradeStore) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	return s.Primary.ExistingIDs(ctx, ids)
}

// GetByTrader reads from Primary.
func (s *MirrorTradeStore) GetByTrader(ctx context.Context, traderID int64, since int64) ([]*domain.Trade, error) {
	return s.Primary.GetByTrader(ctx, traderID, since)
}

// GetByTradersTimeRange reads from Primary.
func (s *MirrorTradeStore) GetByTradersTimeRange(ctx context.Context, traderIDs []int64, start, end int64) ([]*domain.Trade, error) {
	return s.Primary.GetByTradersTimeRange(ctx, traderIDs, start, end)
}

func (s *MirrorTradeStore) report(op string, err error) {
	if err != nil && s.OnMirrorError != nil {
		s.OnMirrorError(op, err)
	}
}
