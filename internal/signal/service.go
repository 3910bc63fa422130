package signal

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/observability"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// Trade event outcomes recorded in metrics.
const (
	ResultNoSignal = "no_signal"
	ResultSignal   = "signal"
	ResultInvalid  = "invalid"
)

// Service is the live wrapper around one Engine. It validates events,
// serializes access to the engine and persists emitted signals.
type Service struct {
	mu     sync.Mutex
	engine *Engine

	signals storage.SignalStore
	logger  *zap.Logger
	metrics *observability.Metrics
}

// ServiceOptions for creating Service.
type ServiceOptions struct {
	Strategy    domain.StrategyConfig
	Eligibility EligibilityChecker
	Signals     storage.SignalStore

	// Optional
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewService creates a live signal service with a fresh engine.
func NewService(opts ServiceOptions) (*Service, error) {
	engine, err := NewEngine(opts.Strategy, opts.Eligibility)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:  engine,
		signals: opts.Signals,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Engine returns a fresh engine with the live configuration.
func (s *Service) Engine(eligible EligibilityChecker) *Engine {
	return s.engine.Clone(eligible)
}

// Ingest validates ev, feeds it to the engine and persists any emitted signal.
func (s *Service) Ingest(ctx context.Context, ev domain.TradeEvent) (*domain.Signal, error) {
	if err := ev.Validate(); err != nil {
		s.metrics.RecordTradeEvent(ResultInvalid)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sig, err := s.engine.Process(ctx, ev)
	if err != nil {
		return nil, err
	}
	if sig == nil {
		s.metrics.RecordTradeEvent(ResultNoSignal)
		return nil, nil
	}

	sig.ID = uuid.NewString()
	if err := s.signals.Insert(ctx, sig); err != nil {
		return nil, fmt.Errorf("insert signal: %w", err)
	}
	s.metrics.RecordTradeEvent(ResultSignal)
	s.metrics.RecordSignal(sig.Side.String())

	s.logger.Info("signal emitted",
		zap.String("signal_id", sig.ID),
		zap.String("symbol", sig.Symbol),
		zap.String("side", sig.Side.String()),
		zap.Int("smart_traders", sig.SmartTraderCount),
		zap.Float64("price_min", sig.PriceRangeMin),
		zap.Float64("price_max", sig.PriceRangeMax))
	return sig, nil
}

// Recent returns the newest persisted signals.
func (s *Service) Recent(ctx context.Context, limit int) ([]*domain.Signal, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.signals.ListRecent(ctx, limit)
}
