package domain

// FollowerTrade is a position of the follower account opened from a signal.
// Corresponds to follower_trades table.
type FollowerTrade struct {
	ID                  string   `json:"id"`
	SignalID            *string  `json:"signal_id,omitempty"`
	Symbol              string   `json:"symbol"`
	Side                Side     `json:"side"`
	Size                float64  `json:"size"`
	EntryPrice          float64  `json:"entry_price"`
	ExitPrice           *float64 `json:"exit_price,omitempty"`
	PnL                 *float64 `json:"pnl,omitempty"`
	OpenedAt            int64    `json:"opened_at"`
	ClosedAt            *int64   `json:"closed_at,omitempty"`
	IsOpen              bool     `json:"is_open"`
	SourceSignalID      *string  `json:"source_signal_id,omitempty"`
	SourceTraderAddress *string  `json:"source_trader_address,omitempty"`
}

// Close settles the position at exitPrice. Long PnL is (exit-entry)*size,
// short is the reverse. Returns ErrPositionClosed for an already closed position.
func (f *FollowerTrade) Close(exitPrice float64, at int64) error {
	if !f.IsOpen {
		return ErrPositionClosed
	}
	pnl := (exitPrice - f.EntryPrice) * f.Size
	if f.Side == SideShort {
		pnl = -pnl
	}
	f.ExitPrice = &exitPrice
	f.PnL = &pnl
	f.ClosedAt = &at
	f.IsOpen = false
	return nil
}
