package domain

// RiskConfig holds follower account risk limits.
// Corresponds to risk_config table; a single row is created on first read.
type RiskConfig struct {
	ID                       int64    `json:"id"`
	MaxDrawdownPct           float64  `json:"max_drawdown_pct"`
	MaxLeveragePerSymbol     *float64 `json:"max_leverage_per_symbol,omitempty"`
	MaxPositionSizePerSymbol *float64 `json:"max_position_size_per_symbol,omitempty"`
	CreatedAt                int64    `json:"created_at"`
	UpdatedAt                int64    `json:"updated_at"`
}

// DefaultMaxDrawdownPct is the drawdown threshold of a freshly created RiskConfig.
const DefaultMaxDrawdownPct = 0.3

// Risk event types
const (
	RiskEventMaxDrawdownHit = "MAX_DRAWDOWN_HIT"
)

// RiskEvent is an append-only record of a risk breach.
// Corresponds to risk_events table.
type RiskEvent struct {
	ID        string             `json:"id"`
	EventType string             `json:"event_type"`
	Details   map[string]float64 `json:"details"`
	CreatedAt int64              `json:"created_at"`
}

// RiskState is the reporting view returned by the risk monitor.
type RiskState struct {
	Config                RiskConfig `json:"config"`
	InitialEquity         float64    `json:"initial_equity"`
	CurrentEquity         float64    `json:"current_equity"`
	MaxDrawdownAbs        float64    `json:"max_drawdown_abs"`
	MaxDrawdownPct        float64    `json:"max_drawdown_pct"`         // relative to running peak
	MaxDrawdownPctInitial float64    `json:"max_drawdown_pct_initial"` // relative to initial equity
	ClosedTrades          int        `json:"closed_trades"`
	RiskTriggered         bool       `json:"risk_triggered"`
	LastEvent             *RiskEvent `json:"last_event,omitempty"`
}
