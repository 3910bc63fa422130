package domain

// UniverseEntry is the persisted snapshot of a trader's profile and selection
// outcome for one lookback window. At most one entry exists per (TraderID, WindowDays).
// Corresponds to smart_trader_universe table.
type UniverseEntry struct {
	TraderID        int64           `json:"trader_id"`
	Address         string          `json:"address"`
	WindowDays      int             `json:"window_days"`
	Profile         TraderProfile   `json:"profile"`
	Score           float64         `json:"score"`
	Eligible        bool            `json:"eligible"`
	FiltersSnapshot SelectionConfig `json:"filters_snapshot"`
	SharpeWindow    *float64        `json:"sharpe_window,omitempty"` // not computed yet
	CreatedAt       int64           `json:"created_at"`
	UpdatedAt       int64           `json:"updated_at"`
}

// UniverseFilter selects universe entries. Nil pointers disable a filter.
type UniverseFilter struct {
	WindowDays      int
	MinScore        *float64
	MinPayoffRatio  *float64
	MinTradesPerDay *float64
	EligibleOnly    bool
	Limit           int // 0 means unlimited
}

// Matches reports whether an entry passes the filter.
func (f UniverseFilter) Matches(e *UniverseEntry) bool {
	if e.WindowDays != f.WindowDays {
		return false
	}
	if f.EligibleOnly && !e.Eligible {
		return false
	}
	if f.MinScore != nil && e.Score < *f.MinScore {
		return false
	}
	if f.MinPayoffRatio != nil && e.Profile.PayoffRatio < *f.MinPayoffRatio {
		return false
	}
	if f.MinTradesPerDay != nil && e.Profile.TradesPerDay < *f.MinTradesPerDay {
		return false
	}
	return true
}

// TopTrader is the compact view of an eligible trader in a refresh summary.
type TopTrader struct {
	TraderID     int64   `json:"trader_id"`
	Address      string  `json:"address"`
	Score        float64 `json:"score"`
	WinRate      float64 `json:"win_rate"`
	PayoffRatio  float64 `json:"payoff_ratio"`
	Expectancy   float64 `json:"expectancy"`
	TradesPerDay float64 `json:"trades_per_day"`
}

// RefreshSummary reports the outcome of a bulk universe refresh.
type RefreshSummary struct {
	WindowDays      int         `json:"window_days"`
	TotalTraders    int         `json:"total_traders"`
	EligibleTraders int         `json:"eligible_traders"`
	TopTraders      []TopTrader `json:"top_traders"`
}
