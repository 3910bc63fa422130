package domain

// Signal is emitted when enough distinct smart addresses cluster on the same
// symbol, side and price band inside the aggregation window.
// Corresponds to signals table.
type Signal struct {
	ID               string   `json:"id"`
	Symbol           string   `json:"symbol"`
	Side             Side     `json:"side"`
	PriceRangeMin    float64  `json:"price_range_min"`
	PriceRangeMax    float64  `json:"price_range_max"`
	SmartTraderCount int      `json:"smart_trader_count"`
	TraderAddresses  []string `json:"trader_addresses"` // sorted, distinct
	SignalStrength   float64  `json:"signal_strength"`
	CreatedAt        int64    `json:"created_at"` // timestamp of the triggering event (ms)
	Executed         bool     `json:"executed"`
	ExecutedAt       *int64   `json:"executed_at,omitempty"`
}

// MidPrice returns the centre of the signal's price band.
func (s *Signal) MidPrice() float64 {
	return (s.PriceRangeMin + s.PriceRangeMax) / 2
}

// MarkExecuted transitions the signal to executed. Executed never reverts;
// a second call returns ErrSignalExecuted.
func (s *Signal) MarkExecuted(at int64) error {
	if s.Executed {
		return ErrSignalExecuted
	}
	s.Executed = true
	s.ExecutedAt = &at
	return nil
}
