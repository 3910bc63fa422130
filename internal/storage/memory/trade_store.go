package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Trade // keyed by trade ID
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.Trade),
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if trade ID exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.Trade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[t.ID] = cloneTrade(t)
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(_ context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.ID] = struct{}{}
	}

	// Second pass: insert all
	for _, t := range trades {
		s.data[t.ID] = cloneTrade(t)
	}
	return nil
}

// ExistingIDs returns the subset of ids already stored.
func (s *TradeStore) ExistingIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[string]struct{})
	for _, id := range ids {
		if _, exists := s.data[id]; exists {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

// GetByTrader retrieves trades of a trader with opened_at >= since.
func (s *TradeStore) GetByTrader(_ context.Context, traderID int64, since int64) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.TraderID == traderID && t.OpenedAt >= since {
			result = append(result, cloneTrade(t))
		}
	}
	sortTrades(result)
	return result, nil
}

// GetByTradersTimeRange retrieves trades of the given traders opened within [start, end].
func (s *TradeStore) GetByTradersTimeRange(_ context.Context, traderIDs []int64, start, end int64) ([]*domain.Trade, error) {
	if len(traderIDs) == 0 {
		return nil, nil
	}

	wanted := make(map[int64]struct{}, len(traderIDs))
	for _, id := range traderIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if _, ok := wanted[t.TraderID]; !ok {
			continue
		}
		if t.OpenedAt >= start && t.OpenedAt <= end {
			result = append(result, cloneTrade(t))
		}
	}
	sortTrades(result)
	return result, nil
}

func sortTrades(trades []*domain.Trade) {
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].OpenedAt != trades[j].OpenedAt {
			return trades[i].OpenedAt < trades[j].OpenedAt
		}
		return trades[i].ID < trades[j].ID
	})
}

func cloneTrade(t *domain.Trade) *domain.Trade {
	copy := *t
	if t.RawData != nil {
		copy.RawData = append([]byte(nil), t.RawData...)
	}
	return &copy
}

var _ storage.TradeStore = (*TradeStore)(nil)
