package domain

// TraderProfile is the normalized performance profile of one trader over a
// lookback window. Recomputed from scratch on every refresh.
type TraderProfile struct {
	PnL            float64 `json:"pnl"`              // sum of realized PnL over valid trades
	WinRate        float64 `json:"win_rate"`         // wins / (wins + losses), flat trades excluded
	Volatility     float64 `json:"volatility"`       // population stdev of R
	MaxDrawdown    float64 `json:"max_drawdown"`     // absolute, synthetic equity units
	MaxDrawdownPct float64 `json:"max_drawdown_pct"` // relative to running peak
	NumTrades      int     `json:"num_trades"`       // trades with a valid R
	ActiveDays     int     `json:"active_days"`
	TradesPerDay   float64 `json:"trades_per_day"`
	AvgWinR        float64 `json:"avg_win_r"`
	AvgLossR       float64 `json:"avg_loss_r"` // positive magnitude
	PayoffRatio    float64 `json:"payoff_ratio"`
	Expectancy     float64 `json:"expectancy"` // mean R
	MinTradeR      float64 `json:"min_trade_r"`
}

// PayoffRatioCap is the payoff ratio reported for a trader with wins and no losses.
const PayoffRatioCap = 10.0
