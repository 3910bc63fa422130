package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Signal
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{
		data: make(map[string]*domain.Signal),
	}
}

// Insert adds a new signal. Returns ErrDuplicateKey if ID exists.
func (s *SignalStore) Insert(_ context.Context, sig *domain.Signal) error {
	if sig == nil || sig.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sig.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[sig.ID] = cloneSignal(sig)
	return nil
}

// GetByID retrieves a signal. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(_ context.Context, id string) (*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneSignal(sig), nil
}

// MarkExecuted atomically flips executed false->true.
func (s *SignalStore) MarkExecuted(_ context.Context, id string, at int64) (*domain.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	if err := sig.MarkExecuted(at); err != nil {
		return nil, err
	}
	return cloneSignal(sig), nil
}

// ListRecent retrieves the newest signals ordered by created_at DESC.
func (s *SignalStore) ListRecent(_ context.Context, limit int) ([]*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Signal, 0, len(s.data))
	for _, sig := range s.data {
		result = append(result, cloneSignal(sig))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})
	return paginate(result, limit, 0), nil
}

func cloneSignal(sig *domain.Signal) *domain.Signal {
	copy := *sig
	copy.TraderAddresses = append([]string(nil), sig.TraderAddresses...)
	if sig.ExecutedAt != nil {
		v := *sig.ExecutedAt
		copy.ExecutedAt = &v
	}
	return &copy
}

var _ storage.SignalStore = (*SignalStore)(nil)
