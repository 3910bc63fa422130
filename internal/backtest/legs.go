package backtest

import (
	"sort"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/replay"
)

type tradeKey struct {
	address string
	symbol  string
	side    domain.Side
}

// tradeIndex groups replayed trades by (address, symbol, side).
type tradeIndex map[tradeKey][]*domain.Trade

func indexEvents(events []*replay.Event) tradeIndex {
	idx := make(tradeIndex)
	for _, ev := range events {
		k := tradeKey{address: ev.TraderAddress, symbol: ev.Trade.Symbol, side: ev.Trade.Side}
		idx[k] = append(idx[k], ev.Trade)
	}
	return idx
}

// matchTrade picks the historical trade behind one address of a signal among
// trades opened in [signalTime - windowMs, signalTime].
//
// Tie-break: the opened_at closest to the signal wins, which within the
// window is the latest one; equal opened_at falls back to the smallest trade ID.
func matchTrade(candidates []*domain.Trade, signalTime, windowMs int64) *domain.Trade {
	var best *domain.Trade
	from := signalTime - windowMs
	for _, t := range candidates {
		if t.OpenedAt < from || t.OpenedAt > signalTime {
			continue
		}
		if best == nil ||
			t.OpenedAt > best.OpenedAt ||
			(t.OpenedAt == best.OpenedAt && t.ID < best.ID) {
			best = t
		}
	}
	return best
}

// buildLegs converts signals into simulated legs. It returns the legs in
// close-time order and the number of addresses that produced no leg.
func buildLegs(signals []*domain.Signal, idx tradeIndex, p domain.BacktestParams) ([]domain.Leg, int) {
	var legs []domain.Leg
	dropped := 0
	windowMs := p.Strategy.TimeWindowMs()

	for i, sig := range signals {
		if len(sig.TraderAddresses) == 0 {
			continue
		}
		notional := p.Execution.NotionalPerSignal / float64(len(sig.TraderAddresses))

		for _, addr := range sig.TraderAddresses {
			t := matchTrade(idx[tradeKey{address: addr, symbol: sig.Symbol, side: sig.Side}], sig.CreatedAt, windowMs)
			if t == nil || t.ExitPrice == nil || t.EntryPrice <= 0 {
				dropped++
				continue
			}
			legs = append(legs, newLeg(i, addr, sig, t, notional, p.Execution.FeeRateBps))
		}
	}

	sortLegs(legs)
	return legs, dropped
}

func newLeg(signalIndex int, addr string, sig *domain.Signal, t *domain.Trade, notional, feeBps float64) domain.Leg {
	exit := *t.ExitPrice
	r := (exit - t.EntryPrice) / t.EntryPrice
	if sig.Side == domain.SideShort {
		r = (t.EntryPrice - exit) / t.EntryPrice
	}
	gross := notional * r
	fee := notional * feeBps / 10000

	return domain.Leg{
		SignalIndex: signalIndex,
		Trader:      addr,
		TradeID:     t.ID,
		Symbol:      sig.Symbol,
		Side:        sig.Side,
		OpenTime:    sig.CreatedAt,
		CloseTime:   t.CloseTime(),
		EntryPrice:  t.EntryPrice,
		ExitPrice:   exit,
		Notional:    notional,
		R:           r,
		GrossPnL:    gross,
		Fee:         fee,
		PnL:         gross - fee,
	}
}

// sortLegs orders legs by (close_time, open_time, trader, symbol, trade_id, signal_index).
func sortLegs(legs []domain.Leg) {
	sort.Slice(legs, func(i, j int) bool {
		a, b := legs[i], legs[j]
		if a.CloseTime != b.CloseTime {
			return a.CloseTime < b.CloseTime
		}
		if a.OpenTime != b.OpenTime {
			return a.OpenTime < b.OpenTime
		}
		if a.Trader != b.Trader {
			return a.Trader < b.Trader
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		if a.TradeID != b.TradeID {
			return a.TradeID < b.TradeID
		}
		return a.SignalIndex < b.SignalIndex
	})
}
