package reporting

import (
	"time"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// Report is the rendered view of one backtest run.
type Report struct {
	GeneratedAt time.Time

	// Run is the stored backtest run, summary included.
	Run *domain.BacktestRun

	// Traders are the universe entries of the run's window that passed its
	// filters, sorted by score DESC.
	Traders []TraderRow

	// SymbolBreakdown aggregates legs per symbol, sorted by symbol.
	SymbolBreakdown []SymbolRow
}

// TraderRow is one trader of the run's universe.
type TraderRow struct {
	Address      string
	Score        float64
	Eligible     bool
	NumTrades    int
	WinRate      float64
	PayoffRatio  float64
	Expectancy   float64
	TradesPerDay float64
}

// SymbolRow summarizes the legs of one symbol.
type SymbolRow struct {
	Symbol  string
	Legs    int
	Wins    int
	WinRate float64
	PnL     float64
	Fees    float64
}
