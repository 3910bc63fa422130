// Package verification re-executes stored backtest runs and reports where
// the replayed result diverges from what was persisted.
package verification

import (
	"context"
	"fmt"
	"math"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string `json:"field"`
	Expected any    `json:"expected"` // stored value
	Actual   any    `json:"actual"`   // replayed value
}

func (d FieldDivergence) String() string {
	return fmt.Sprintf("%s: stored=%v replayed=%v", d.Field, d.Expected, d.Actual)
}

// VerificationResult is the outcome of verifying one run.
type VerificationResult struct {
	RunID       string            `json:"run_id"`
	Match       bool              `json:"match"`
	Divergences []FieldDivergence `json:"divergences"`
	StoredPnL   float64           `json:"stored_pnl"`
	ReplayedPnL float64           `json:"replayed_pnl"`
}

// VerificationReport aggregates results of a batch.
type VerificationReport struct {
	TotalRuns     int                  `json:"total_runs"`
	MatchedRuns   int                  `json:"matched_runs"`
	DivergentRuns int                  `json:"divergent_runs"`
	Results       []VerificationResult `json:"results"`
}

// Verifier checks stored runs against a fresh replay.
type Verifier interface {
	VerifyRun(ctx context.Context, runID string) (*VerificationResult, error)
	VerifyRecent(ctx context.Context, limit int) (*VerificationReport, error)
}

// CompareSummaries returns every divergence between a stored and a replayed
// summary. Legs are compared pairwise up to the shorter list; a length
// mismatch is reported once as NumLegs.
func CompareSummaries(stored, replayed *domain.BacktestSummary) []FieldDivergence {
	var divs []FieldDivergence
	addFloat := func(field string, a, b float64) {
		if !floatEquals(a, b) {
			divs = append(divs, FieldDivergence{Field: field, Expected: a, Actual: b})
		}
	}
	addInt := func(field string, a, b int) {
		if a != b {
			divs = append(divs, FieldDivergence{Field: field, Expected: a, Actual: b})
		}
	}

	addFloat("FinalEquity", stored.FinalEquity, replayed.FinalEquity)
	addFloat("TotalPnL", stored.TotalPnL, replayed.TotalPnL)
	addFloat("MaxDrawdownAbs", stored.MaxDrawdownAbs, replayed.MaxDrawdownAbs)
	addFloat("MaxDrawdownPct", stored.MaxDrawdownPct, replayed.MaxDrawdownPct)
	addFloat("WinRate", stored.WinRate, replayed.WinRate)
	addFloat("PayoffRatio", stored.PayoffRatio, replayed.PayoffRatio)
	addFloat("Sharpe", stored.Sharpe, replayed.Sharpe)
	addInt("NumTraders", stored.NumTraders, replayed.NumTraders)
	addInt("TotalSignals", stored.TotalSignals, replayed.TotalSignals)
	addInt("NumLegs", stored.NumLegs, replayed.NumLegs)
	addInt("DroppedLegs", stored.DroppedLegs, replayed.DroppedLegs)

	if stored.Halted != replayed.Halted {
		divs = append(divs, FieldDivergence{Field: "Halted", Expected: stored.Halted, Actual: replayed.Halted})
	}
	if !int64PtrEquals(stored.HaltedAt, replayed.HaltedAt) {
		divs = append(divs, FieldDivergence{Field: "HaltedAt", Expected: deref(stored.HaltedAt), Actual: deref(replayed.HaltedAt)})
	}

	n := min(len(stored.Legs), len(replayed.Legs))
	for i := 0; i < n; i++ {
		divs = append(divs, compareLegs(i, &stored.Legs[i], &replayed.Legs[i])...)
	}
	return divs
}

func compareLegs(i int, stored, replayed *domain.Leg) []FieldDivergence {
	var divs []FieldDivergence
	field := func(name string) string { return fmt.Sprintf("Legs[%d].%s", i, name) }

	if stored.TradeID != replayed.TradeID {
		divs = append(divs, FieldDivergence{Field: field("TradeID"), Expected: stored.TradeID, Actual: replayed.TradeID})
	}
	if stored.Symbol != replayed.Symbol {
		divs = append(divs, FieldDivergence{Field: field("Symbol"), Expected: stored.Symbol, Actual: replayed.Symbol})
	}
	if stored.Side != replayed.Side {
		divs = append(divs, FieldDivergence{Field: field("Side"), Expected: stored.Side, Actual: replayed.Side})
	}
	if stored.OpenTime != replayed.OpenTime {
		divs = append(divs, FieldDivergence{Field: field("OpenTime"), Expected: stored.OpenTime, Actual: replayed.OpenTime})
	}
	if stored.CloseTime != replayed.CloseTime {
		divs = append(divs, FieldDivergence{Field: field("CloseTime"), Expected: stored.CloseTime, Actual: replayed.CloseTime})
	}
	for _, f := range []struct {
		name string
		a, b float64
	}{
		{"EntryPrice", stored.EntryPrice, replayed.EntryPrice},
		{"ExitPrice", stored.ExitPrice, replayed.ExitPrice},
		{"Notional", stored.Notional, replayed.Notional},
		{"PnL", stored.PnL, replayed.PnL},
	} {
		if !floatEquals(f.a, f.b) {
			divs = append(divs, FieldDivergence{Field: field(f.name), Expected: f.a, Actual: f.b})
		}
	}
	return divs
}

// floatEquals checks if two floats are equal within tolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

func int64PtrEquals(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
