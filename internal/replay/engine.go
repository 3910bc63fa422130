package replay

import (
	"context"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// Event is one historical trade presented to a replay engine.
type Event struct {
	TraderAddress string
	Trade         *domain.Trade
}

// Timestamp returns the trade's open time in milliseconds.
func (e *Event) Timestamp() int64 {
	return e.Trade.OpenedAt
}

// TradeEvent converts the event into signal engine input.
func (e *Event) TradeEvent() domain.TradeEvent {
	return domain.TradeEvent{
		TraderAddress: e.TraderAddress,
		Symbol:        e.Trade.Symbol,
		Side:          e.Trade.Side,
		Price:         e.Trade.EntryPrice,
		Size:          e.Trade.Size,
		Timestamp:     e.Trade.OpenedAt,
	}
}

// ReplayEngine processes events in deterministic order.
type ReplayEngine interface {
	// OnEvent is called for each event in order.
	// Events are guaranteed to be ordered by (opened_at, trader_address, trade_id).
	OnEvent(ctx context.Context, event *Event) error
}
