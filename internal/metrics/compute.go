package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// ComputeProfile converts a trader's trades into a performance profile.
// It never fails: missing data degrades to an all-zero profile whose
// ActiveDays still reflects raw trade-day coverage.
//
// Trades are sorted by OpenedAt ASC, ID ASC before the order-dependent
// drawdown walk.
func ComputeProfile(trades []*domain.Trade) domain.TraderProfile {
	if len(trades) == 0 {
		return domain.TraderProfile{}
	}

	sorted := make([]*domain.Trade, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].OpenedAt != sorted[j].OpenedAt {
			return sorted[i].OpenedAt < sorted[j].OpenedAt
		}
		return sorted[i].ID < sorted[j].ID
	})

	activeDays := countActiveDays(sorted)

	var rs, winRs, lossRs []float64
	totalPnL := 0.0
	for _, t := range sorted {
		r, ok := t.R()
		if !ok {
			continue
		}
		rs = append(rs, r)
		totalPnL += *t.RealizedPnL
		switch {
		case r > 0:
			winRs = append(winRs, r)
		case r < 0:
			lossRs = append(lossRs, -r)
		}
	}

	if len(rs) == 0 {
		return domain.TraderProfile{ActiveDays: activeDays}
	}

	avgWin := Mean(winRs)
	avgLoss := Mean(lossRs)
	expectancy := Mean(rs)

	winRate := 0.0
	if directional := len(winRs) + len(lossRs); directional > 0 {
		winRate = float64(len(winRs)) / float64(directional)
	}

	minR := math.Inf(1)
	curve := NewEquityTracker(1.0)
	for _, r := range rs {
		if r < minR {
			minR = r
		}
		curve.ApplyReturn(r)
	}

	tradesPerDay := 0.0
	if activeDays > 0 {
		tradesPerDay = float64(len(rs)) / float64(activeDays)
	}

	return domain.TraderProfile{
		PnL:            totalPnL,
		WinRate:        winRate,
		Volatility:     PopulationStddev(rs, expectancy),
		MaxDrawdown:    curve.MaxDrawdownAbs,
		MaxDrawdownPct: curve.MaxDrawdownPct,
		NumTrades:      len(rs),
		ActiveDays:     activeDays,
		TradesPerDay:   tradesPerDay,
		AvgWinR:        avgWin,
		AvgLossR:       avgLoss,
		PayoffRatio:    PayoffRatio(avgWin, avgLoss, domain.PayoffRatioCap),
		Expectancy:     expectancy,
		MinTradeR:      minR,
	}
}

// countActiveDays counts distinct UTC calendar dates touched by either the
// open or the close timestamp of any trade.
func countActiveDays(trades []*domain.Trade) int {
	days := make(map[string]struct{})
	for _, t := range trades {
		days[utcDate(t.OpenedAt)] = struct{}{}
		if t.ClosedAt != nil {
			days[utcDate(*t.ClosedAt)] = struct{}{}
		}
	}
	return len(days)
}

func utcDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(domain.DateLayout)
}
