package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// UniverseStore is an in-memory implementation of storage.UniverseStore.
type UniverseStore struct {
	mu   sync.RWMutex
	data map[string]*domain.UniverseEntry // keyed by trader_id|window_days
}

// NewUniverseStore creates a new in-memory universe store.
func NewUniverseStore() *UniverseStore {
	return &UniverseStore{
		data: make(map[string]*domain.UniverseEntry),
	}
}

func universeKey(traderID int64, windowDays int) string {
	return fmt.Sprintf("%d|%d", traderID, windowDays)
}

// Upsert inserts the entry or overwrites the existing (trader_id, window_days) row.
func (s *UniverseStore) Upsert(_ context.Context, e *domain.UniverseEntry) error {
	if e == nil || e.TraderID == 0 || e.WindowDays <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	key := universeKey(e.TraderID, e.WindowDays)
	copy := cloneEntry(e)
	if existing, ok := s.data[key]; ok {
		copy.CreatedAt = existing.CreatedAt
	} else if copy.CreatedAt == 0 {
		copy.CreatedAt = now
	}
	if copy.UpdatedAt == 0 {
		copy.UpdatedAt = now
	}
	s.data[key] = copy

	e.CreatedAt, e.UpdatedAt = copy.CreatedAt, copy.UpdatedAt
	return nil
}

// Get retrieves the entry for (traderID, windowDays). Returns ErrNotFound if not exists.
func (s *UniverseStore) Get(_ context.Context, traderID int64, windowDays int) (*domain.UniverseEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[universeKey(traderID, windowDays)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneEntry(e), nil
}

// List retrieves entries matching the filter ordered by score DESC, then trader_id ASC.
func (s *UniverseStore) List(_ context.Context, f domain.UniverseFilter) ([]*domain.UniverseEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.UniverseEntry
	for _, e := range s.data {
		if f.Matches(e) {
			result = append(result, cloneEntry(e))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].TraderID < result[j].TraderID
	})

	return paginate(result, f.Limit, 0), nil
}

func cloneEntry(e *domain.UniverseEntry) *domain.UniverseEntry {
	copy := *e
	if e.SharpeWindow != nil {
		v := *e.SharpeWindow
		copy.SharpeWindow = &v
	}
	return &copy
}

var _ storage.UniverseStore = (*UniverseStore)(nil)
