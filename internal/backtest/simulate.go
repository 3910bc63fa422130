package backtest

import (
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/metrics"
)

// Outcome is the result of replaying legs into an equity curve.
type Outcome struct {
	Applied  []domain.Leg
	Curve    []domain.EquityPoint // full, not downsampled
	Tracker  *metrics.EquityTracker
	Halted   bool
	HaltedAt *int64
}

// Simulate applies legs in order starting from cfg.InitialEquity.
// The first leg that takes the peak-relative drawdown to cfg.MaxDrawdownPct
// or beyond is applied and halts the run; later legs are never applied.
// Drawdown is only checked at leg close.
func Simulate(legs []domain.Leg, cfg domain.ExecutionConfig, startMs int64) Outcome {
	tracker := metrics.NewEquityTracker(cfg.InitialEquity)
	start := startMs
	out := Outcome{
		Curve:   []domain.EquityPoint{{Step: 0, Equity: cfg.InitialEquity, Time: &start}},
		Tracker: tracker,
	}

	for _, leg := range legs {
		dd := tracker.Apply(leg.PnL)
		out.Applied = append(out.Applied, leg)

		closeTime := leg.CloseTime
		out.Curve = append(out.Curve, domain.EquityPoint{
			Step:   len(out.Applied),
			Equity: tracker.Equity,
			Time:   &closeTime,
		})

		if dd >= cfg.MaxDrawdownPct {
			out.Halted = true
			out.HaltedAt = &closeTime
			break
		}
	}
	return out
}

// Summarize computes the run statistics over the applied legs.
func Summarize(out Outcome, cfg domain.ExecutionConfig) domain.BacktestSummary {
	pnls := make([]float64, len(out.Applied))
	var wins, losses []float64
	for i, leg := range out.Applied {
		pnls[i] = leg.PnL
		switch {
		case leg.PnL > 0:
			wins = append(wins, leg.PnL)
		case leg.PnL < 0:
			losses = append(losses, -leg.PnL)
		}
	}

	n := len(pnls)
	winRate := 0.0
	if n > 0 {
		winRate = float64(len(wins)) / float64(n)
	}
	expectancy := metrics.Mean(pnls)
	sharpe := 0.0
	if std := metrics.PopulationStddev(pnls, expectancy); n > 1 && std > 0 {
		sharpe = expectancy / std
	}

	final := out.Tracker.Equity
	totalPnL := final - cfg.InitialEquity
	legs := out.Applied
	if legs == nil {
		legs = []domain.Leg{}
	}

	return domain.BacktestSummary{
		InitialEquity:  cfg.InitialEquity,
		FinalEquity:    final,
		TotalPnL:       totalPnL,
		TotalReturnPct: totalPnL / cfg.InitialEquity,
		MaxDrawdownAbs: out.Tracker.MaxDrawdownAbs,
		MaxDrawdownPct: out.Tracker.MaxDrawdownPct,
		WinRate:        winRate,
		PayoffRatio:    metrics.PayoffRatio(metrics.Mean(wins), metrics.Mean(losses), domain.PayoffRatioCap),
		Expectancy:     expectancy,
		Sharpe:         sharpe,
		NumLegs:        n,
		Halted:         out.Halted,
		HaltedAt:       out.HaltedAt,
		EquityCurve:    Downsample(out.Curve, cfg.MaxCurvePoints),
		Legs:           legs,
	}
}

// Downsample keeps at most maxPoints points of curve with a fixed stride of
// ceil((n-1)/(maxPoints-1)), always keeping the first and last points.
func Downsample(curve []domain.EquityPoint, maxPoints int) []domain.EquityPoint {
	n := len(curve)
	if maxPoints < 2 || n <= maxPoints {
		return curve
	}
	stride := (n - 1 + maxPoints - 2) / (maxPoints - 1)

	out := make([]domain.EquityPoint, 0, maxPoints)
	for i := 0; i < n; i += stride {
		out = append(out, curve[i])
	}
	if last := curve[n-1]; out[len(out)-1].Step != last.Step {
		out = append(out, last)
	}
	return out
}
