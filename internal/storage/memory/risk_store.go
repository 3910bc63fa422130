package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// RiskConfigStore is an in-memory implementation of storage.RiskConfigStore.
type RiskConfigStore struct {
	mu     sync.Mutex
	config *domain.RiskConfig
}

// NewRiskConfigStore creates a new in-memory risk config store.
func NewRiskConfigStore() *RiskConfigStore {
	return &RiskConfigStore{}
}

// GetOrCreate returns the config, inserting def if none exists.
func (s *RiskConfigStore) GetOrCreate(_ context.Context, def domain.RiskConfig) (*domain.RiskConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		now := time.Now().UnixMilli()
		def.ID = 1
		def.CreatedAt, def.UpdatedAt = now, now
		s.config = &def
	}
	copy := *s.config
	return &copy, nil
}

// Update overwrites the limits of the existing config.
func (s *RiskConfigStore) Update(_ context.Context, c *domain.RiskConfig) error {
	if c == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil || s.config.ID != c.ID {
		return storage.ErrNotFound
	}
	s.config.MaxDrawdownPct = c.MaxDrawdownPct
	s.config.MaxLeveragePerSymbol = c.MaxLeveragePerSymbol
	s.config.MaxPositionSizePerSymbol = c.MaxPositionSizePerSymbol
	s.config.UpdatedAt = time.Now().UnixMilli()
	c.UpdatedAt = s.config.UpdatedAt
	return nil
}

// RiskEventStore is an in-memory implementation of storage.RiskEventStore.
type RiskEventStore struct {
	mu     sync.RWMutex
	events []*domain.RiskEvent
	ids    map[string]struct{}
}

// NewRiskEventStore creates a new in-memory risk event store.
func NewRiskEventStore() *RiskEventStore {
	return &RiskEventStore{ids: make(map[string]struct{})}
}

// Insert appends a new event. Returns ErrDuplicateKey if ID exists.
func (s *RiskEventStore) Insert(_ context.Context, e *domain.RiskEvent) error {
	if e == nil || e.ID == "" || e.EventType == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[e.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.ids[e.ID] = struct{}{}
	s.events = append(s.events, cloneRiskEvent(e))
	return nil
}

// Latest retrieves the newest event. Returns ErrNotFound if none.
func (s *RiskEventStore) Latest(ctx context.Context) (*domain.RiskEvent, error) {
	events, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, storage.ErrNotFound
	}
	return events[0], nil
}

// List retrieves events ordered by created_at DESC (newest insert first on ties).
func (s *RiskEventStore) List(_ context.Context, limit int) ([]*domain.RiskEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RiskEvent, 0, len(s.events))
	for i := len(s.events) - 1; i >= 0; i-- {
		result = append(result, cloneRiskEvent(s.events[i]))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt > result[j].CreatedAt
	})
	return paginate(result, limit, 0), nil
}

func cloneRiskEvent(e *domain.RiskEvent) *domain.RiskEvent {
	copy := *e
	copy.Details = make(map[string]float64, len(e.Details))
	for k, v := range e.Details {
		copy.Details[k] = v
	}
	return &copy
}

var (
	_ storage.RiskConfigStore = (*RiskConfigStore)(nil)
	_ storage.RiskEventStore  = (*RiskEventStore)(nil)
)
