package execution

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/observability"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// DefaultSize is the position size used when none is requested.
const DefaultSize = 0.01

// Synthetic exit multipliers for force liquidation without prices.
const (
	winnerExitMultiplier = 1.05
	loserExitMultiplier  = 0.7
)

// Service turns signals into follower positions.
type Service struct {
	client      Client
	signals     storage.SignalStore
	defaultSize float64

	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// ServiceOptions for creating Service.
type ServiceOptions struct {
	Client  Client
	Signals storage.SignalStore

	// DefaultSize defaults to DefaultSize
	DefaultSize float64

	// Optional
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
}

// NewService creates an execution service.
func NewService(opts ServiceOptions) *Service {
	size := opts.DefaultSize
	if size <= 0 {
		size = DefaultSize
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
		client:      opts.Client,
		signals:     opts.Signals,
		defaultSize: size,
		logger:      logger,
		metrics:     opts.Metrics,
		now:         now,
	}
}

// ExecuteSignal opens one position at the signal's band midpoint.
// A signal executes at most once; a second attempt returns domain.ErrSignalExecuted.
func (s *Service) ExecuteSignal(ctx context.Context, signalID string, size *float64) (*domain.FollowerTrade, error) {
	sig, err := s.signals.GetByID(ctx, signalID)
	if err != nil {
		return nil, fmt.Errorf("get signal %s: %w", signalID, err)
	}
	if sig.Executed {
		return nil, domain.ErrSignalExecuted
	}

	entry := sig.MidPrice()
	if entry <= 0 {
		return nil, fmt.Errorf("%w: entry price of signal %s is not positive", domain.ErrInvalidInput, signalID)
	}
	qty := s.defaultSize
	if size != nil {
		qty = *size
	}
	if qty <= 0 {
		return nil, fmt.Errorf("%w: size must be positive", domain.ErrInvalidInput)
	}

	now := s.now().UnixMilli()
	if _, err := s.signals.MarkExecuted(ctx, signalID, now); err != nil {
		return nil, err
	}

	var source *string
	if len(sig.TraderAddresses) > 0 {
		source = &sig.TraderAddresses[0]
	}
	h, err := s.client.OpenPosition(ctx, OpenRequest{
		Symbol:       sig.Symbol,
		Side:         sig.Side,
		Size:         qty,
		Price:        entry,
		SignalID:     &sig.ID,
		SourceTrader: source,
		Timestamp:    now,
	})
	if err != nil {
		s.logger.Error("open position failed after marking signal executed",
			zap.String("signal_id", signalID), zap.Error(err))
		return nil, err
	}
	s.metrics.RecordSignalExecuted()

	p, err := s.client.Position(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("get opened position %s: %w", h, err)
	}
	s.logger.Info("signal executed",
		zap.String("signal_id", signalID),
		zap.String("symbol", p.Symbol),
		zap.String("side", p.Side.String()),
		zap.Float64("size", p.Size),
		zap.Float64("entry_price", p.EntryPrice))
	return p, nil
}

// CloseAll closes every open position. Exit prices come from prices by symbol,
// falling back to the entry price. With no prices at all, exits are
// synthesized: the first quarter by opened_at exits at +5%, the last quarter
// at -30% and the rest flat.
func (s *Service) CloseAll(ctx context.Context, prices map[string]float64, reason string) ([]*domain.FollowerTrade, error) {
	open, err := s.client.OpenPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open positions: %w", err)
	}
	if len(open) == 0 {
		return []*domain.FollowerTrade{}, nil
	}

	exits := SyntheticExits(open)
	if len(prices) > 0 {
		exits = make(map[string]float64, len(open))
		for _, p := range open {
			exit, ok := prices[p.Symbol]
			if !ok || exit <= 0 {
				exit = p.EntryPrice
			}
			exits[p.ID] = exit
		}
	}

	closed := make([]*domain.FollowerTrade, 0, len(open))
	for _, p := range open {
		t, err := s.client.ClosePosition(ctx, Handle(p.ID), exits[p.ID])
		if err != nil {
			return nil, fmt.Errorf("close position %s: %w", p.ID, err)
		}
		closed = append(closed, t)
	}

	s.metrics.RecordPositionsClosed(len(closed))
	s.logger.Warn("closed all positions",
		zap.Int("count", len(closed)),
		zap.String("reason", reason))
	return closed, nil
}

// SyntheticExits assigns exit prices to positions already sorted by opened_at.
// With n = max(1, len/4), the first n win (+5%), the last n lose (-30%) and
// the rest exit at entry. A position in both groups counts as a winner.
func SyntheticExits(open []*domain.FollowerTrade) map[string]float64 {
	exits := make(map[string]float64, len(open))
	count := len(open)
	if count == 0 {
		return exits
	}
	n := count / 4
	if n < 1 {
		n = 1
	}
	for i, p := range open {
		switch {
		case i < n:
			exits[p.ID] = p.EntryPrice * winnerExitMultiplier
		case i >= count-n:
			exits[p.ID] = p.EntryPrice * loserExitMultiplier
		default:
			exits[p.ID] = p.EntryPrice
		}
	}
	return exits
}
