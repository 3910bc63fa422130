package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Trader represents a tracked market participant.
// Corresponds to traders table.
type Trader struct {
	ID        int64  `json:"id"`
	Address   string `json:"address"`    // venue account address
	CreatedAt int64  `json:"created_at"` // Unix timestamp in milliseconds
	UpdatedAt int64  `json:"updated_at"` // Unix timestamp in milliseconds
}

// Trade represents one historical trade of a tracked trader.
// Corresponds to trades table.
type Trade struct {
	ID          string          `json:"id"` // deterministic hash, see idhash.ComputeTradeID
	TraderID    int64           `json:"trader_id"`
	Symbol      string          `json:"symbol"`
	Side        Side            `json:"side"`
	Size        float64         `json:"size"`
	EntryPrice  float64         `json:"entry_price"`
	ExitPrice   *float64        `json:"exit_price,omitempty"`
	RealizedPnL *float64        `json:"realized_pnl,omitempty"`
	OpenedAt    int64           `json:"opened_at"`           // ms
	ClosedAt    *int64          `json:"closed_at,omitempty"` // ms, nil while open
	RawData     json.RawMessage `json:"raw_data,omitempty"`
}

// Notional returns entry_price * size.
func (t *Trade) Notional() float64 {
	return t.EntryPrice * t.Size
}

// R returns the R-multiple of the trade (realized_pnl / notional).
// ok is false when PnL is unknown or the notional is zero.
func (t *Trade) R() (r float64, ok bool) {
	if t.RealizedPnL == nil {
		return 0, false
	}
	notional := t.Notional()
	if notional == 0 {
		return 0, false
	}
	return *t.RealizedPnL / notional, true
}

// CloseTime returns closed_at, falling back to opened_at for trades without one.
func (t *Trade) CloseTime() int64 {
	if t.ClosedAt != nil {
		return *t.ClosedAt
	}
	return t.OpenedAt
}

// TradeEvent is the normalized, transport-agnostic input of the signal engine.
// Never persisted directly.
type TradeEvent struct {
	TraderAddress string  `json:"trader_address"`
	Symbol        string  `json:"symbol"`
	Side          Side    `json:"side"`
	Price         float64 `json:"price"`
	Size          float64 `json:"size"`
	Timestamp     int64   `json:"timestamp"` // ms
}

// Validate rejects events that must never enter an engine.
func (e TradeEvent) Validate() error {
	switch {
	case strings.TrimSpace(e.TraderAddress) == "":
		return fmt.Errorf("%w: empty trader address", ErrInvalidInput)
	case strings.TrimSpace(e.Symbol) == "":
		return fmt.Errorf("%w: empty symbol", ErrInvalidInput)
	case !e.Side.IsValid():
		return fmt.Errorf("%w: side %q", ErrInvalidInput, e.Side)
	case e.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	case e.Size <= 0:
		return fmt.Errorf("%w: size must be positive", ErrInvalidInput)
	}
	return nil
}
