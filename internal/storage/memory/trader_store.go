package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// TraderStore is an in-memory implementation of storage.TraderStore.
type TraderStore struct {
	mu        sync.RWMutex
	data      map[int64]*domain.Trader
	byAddress map[string]int64
	nextID    int64
}

// NewTraderStore creates a new in-memory trader store.
func NewTraderStore() *TraderStore {
	return &TraderStore{
		data:      make(map[int64]*domain.Trader),
		byAddress: make(map[string]int64),
	}
}

// GetOrCreate returns the trader with the given address, creating it if absent.
func (s *TraderStore) GetOrCreate(_ context.Context, address string) (*domain.Trader, bool, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, false, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.byAddress[address]; exists {
		copy := *s.data[id]
		return &copy, false, nil
	}

	s.nextID++
	now := time.Now().UnixMilli()
	t := &domain.Trader{ID: s.nextID, Address: address, CreatedAt: now, UpdatedAt: now}
	s.data[t.ID] = t
	s.byAddress[address] = t.ID

	copy := *t
	return &copy, true, nil
}

// GetByID retrieves a trader by ID. Returns ErrNotFound if not exists.
func (s *TraderStore) GetByID(_ context.Context, id int64) (*domain.Trader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *t
	return &copy, nil
}

// GetByAddress retrieves a trader by address. Returns ErrNotFound if not exists.
func (s *TraderStore) GetByAddress(_ context.Context, address string) (*domain.Trader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byAddress[strings.TrimSpace(address)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *s.data[id]
	return &copy, nil
}

// List retrieves traders ordered by ID ASC.
func (s *TraderStore) List(_ context.Context, limit, offset int) ([]*domain.Trader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Trader, 0, len(s.data))
	for _, t := range s.data {
		copy := *t
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return paginate(result, limit, offset), nil
}

// Count returns the number of traders.
func (s *TraderStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// paginate applies offset and limit (limit <= 0 means all).
func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var _ storage.TraderStore = (*TraderStore)(nil)
