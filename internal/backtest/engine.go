package backtest

import (
	"context"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/replay"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/signal"
)

// Results holds the signal replay output.
type Results struct {
	EventCount  int
	SignalCount int
	Signals     []*domain.Signal
}

// Engine feeds replayed trades through an isolated signal engine.
// Implements replay.ReplayEngine.
type Engine struct {
	signals *signal.Engine
	results *Results
}

// NewEngine creates a new backtest engine around a fresh signal engine.
func NewEngine(signals *signal.Engine) *Engine {
	return &Engine{
		signals: signals,
		results: &Results{Signals: make([]*domain.Signal, 0)},
	}
}

// OnEvent processes an event through the signal engine.
// Implements replay.ReplayEngine.
func (e *Engine) OnEvent(ctx context.Context, event *replay.Event) error {
	e.results.EventCount++

	sig, err := e.signals.Process(ctx, event.TradeEvent())
	if err != nil {
		return err
	}

	if sig != nil {
		e.results.SignalCount++
		e.results.Signals = append(e.results.Signals, sig)
	}

	return nil
}

// Results returns the replay results.
func (e *Engine) Results() *Results {
	return e.results
}

// Ensure Engine implements replay.ReplayEngine
var _ replay.ReplayEngine = (*Engine)(nil)
