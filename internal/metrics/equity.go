package metrics

// EquityTracker folds a sequence of equity changes and tracks the running
// peak and the worst peak-relative drawdown. Used by the profile's synthetic
// curve, the backtest replay and the risk monitor.
type EquityTracker struct {
	Initial        float64
	Equity         float64
	Peak           float64
	MaxDrawdownAbs float64
	MaxDrawdownPct float64 // relative to the running peak
}

// NewEquityTracker starts a curve at initial equity.
func NewEquityTracker(initial float64) *EquityTracker {
	return &EquityTracker{Initial: initial, Equity: initial, Peak: initial}
}

// Apply adds pnl to equity and returns the current peak-relative drawdown pct.
func (e *EquityTracker) Apply(pnl float64) float64 {
	e.Equity += pnl
	return e.observe()
}

// ApplyReturn compounds equity by (1 + r) and returns the current drawdown pct.
func (e *EquityTracker) ApplyReturn(r float64) float64 {
	e.Equity *= 1 + r
	return e.observe()
}

// DrawdownPctOfInitial returns the max absolute drawdown relative to initial equity.
func (e *EquityTracker) DrawdownPctOfInitial() float64 {
	if e.Initial <= 0 {
		return 0
	}
	return e.MaxDrawdownAbs / e.Initial
}

func (e *EquityTracker) observe() float64 {
	if e.Equity > e.Peak {
		e.Peak = e.Equity
	}
	dd := e.Peak - e.Equity
	ddPct := 0.0
	if e.Peak > 0 {
		ddPct = dd / e.Peak
	}
	if dd > e.MaxDrawdownAbs {
		e.MaxDrawdownAbs = dd
	}
	if ddPct > e.MaxDrawdownPct {
		e.MaxDrawdownPct = ddPct
	}
	return ddPct
}
