package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// FollowerTradeStore is an in-memory implementation of storage.FollowerTradeStore.
type FollowerTradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FollowerTrade
}

// NewFollowerTradeStore creates a new in-memory follower trade store.
func NewFollowerTradeStore() *FollowerTradeStore {
	return &FollowerTradeStore{
		data: make(map[string]*domain.FollowerTrade),
	}
}

// Insert adds a new follower trade. Returns ErrDuplicateKey if ID exists.
func (s *FollowerTradeStore) Insert(_ context.Context, t *domain.FollowerTrade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}
	copy := *t
	s.data[t.ID] = &copy
	return nil
}

// GetByID retrieves a follower trade. Returns ErrNotFound if not exists.
func (s *FollowerTradeStore) GetByID(_ context.Context, id string) (*domain.FollowerTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *t
	return &copy, nil
}

// Close atomically settles an open position.
func (s *FollowerTradeStore) Close(_ context.Context, id string, exitPrice float64, closedAt int64) (*domain.FollowerTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	if err := t.Close(exitPrice, closedAt); err != nil {
		return nil, err
	}
	copy := *t
	return &copy, nil
}

// ListOpen retrieves open positions ordered by opened_at ASC, then ID ASC.
func (s *FollowerTradeStore) ListOpen(_ context.Context) ([]*domain.FollowerTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FollowerTrade
	for _, t := range s.data {
		if t.IsOpen {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].OpenedAt != result[j].OpenedAt {
			return result[i].OpenedAt < result[j].OpenedAt
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ListClosed retrieves settled positions ordered by closed_at ASC, then ID ASC.
func (s *FollowerTradeStore) ListClosed(_ context.Context) ([]*domain.FollowerTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FollowerTrade
	for _, t := range s.data {
		if t.PnL != nil && t.ClosedAt != nil {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if *result[i].ClosedAt != *result[j].ClosedAt {
			return *result[i].ClosedAt < *result[j].ClosedAt
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

var _ storage.FollowerTradeStore = (*FollowerTradeStore)(nil)
