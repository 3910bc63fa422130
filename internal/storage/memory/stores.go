package memory

import "github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"

// NewStores returns a storage.Stores backed entirely by in-memory stores.
func NewStores() *storage.Stores {
	return &storage.Stores{
		Traders:        NewTraderStore(),
		Trades:         NewTradeStore(),
		Universe:       NewUniverseStore(),
		Signals:        NewSignalStore(),
		FollowerTrades: NewFollowerTradeStore(),
		RiskConfigs:    NewRiskConfigStore(),
		RiskEvents:     NewRiskEventStore(),
		BacktestRuns:   NewBacktestRunStore(),
	}
}
