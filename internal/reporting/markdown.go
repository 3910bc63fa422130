package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// maxMarkdownLegs caps the legs table; the CSV export carries all of them.
const maxMarkdownLegs = 50

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	run := r.Run
	s := run.Summary

	// Header
	title := run.Name
	if title == "" {
		title = run.ID
	}
	sb.WriteString(fmt.Sprintf("# Backtest Report: %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if run.Description != "" {
		sb.WriteString(run.Description + "\n\n")
	}

	// Parameters
	p := run.Params
	sb.WriteString("## Parameters\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Run ID | %s |\n", run.ID))
	sb.WriteString(fmt.Sprintf("| Period | %s to %s |\n", p.StartDate, p.EndDate))
	sb.WriteString(fmt.Sprintf("| Universe Window (days) | %d |\n", p.WindowDays))
	sb.WriteString(fmt.Sprintf("| Min Score | %s |\n", optFloat(p.MinScore)))
	sb.WriteString(fmt.Sprintf("| Min Trades/Day | %s |\n", optFloat(p.MinTradesPerDay)))
	sb.WriteString(fmt.Sprintf("| Time Window (s) | %d |\n", p.Strategy.TimeWindowSeconds))
	sb.WriteString(fmt.Sprintf("| Min Smart Traders | %d |\n", p.Strategy.MinSmartTraders))
	sb.WriteString(fmt.Sprintf("| Initial Equity | %.2f |\n", p.Execution.InitialEquity))
	sb.WriteString(fmt.Sprintf("| Notional/Signal | %.4f |\n", p.Execution.NotionalPerSignal))
	sb.WriteString(fmt.Sprintf("| Fee (bps) | %.2f |\n", p.Execution.FeeRateBps))
	sb.WriteString(fmt.Sprintf("| Halt Drawdown | %.2f%% |\n", p.Execution.MaxDrawdownPct*100))
	sb.WriteString("\n")

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Final Equity | %.2f |\n", s.FinalEquity))
	sb.WriteString(fmt.Sprintf("| Total PnL | %.4f |\n", s.TotalPnL))
	sb.WriteString(fmt.Sprintf("| Total Return | %.2f%% |\n", s.TotalReturnPct*100))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.4f (%.2f%%) |\n", s.MaxDrawdownAbs, s.MaxDrawdownPct*100))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", s.WinRate))
	sb.WriteString(fmt.Sprintf("| Payoff Ratio | %.4f |\n", s.PayoffRatio))
	sb.WriteString(fmt.Sprintf("| Expectancy | %.4f |\n", s.Expectancy))
	sb.WriteString(fmt.Sprintf("| Sharpe | %.4f |\n", s.Sharpe))
	sb.WriteString(fmt.Sprintf("| Traders | %d |\n", s.NumTraders))
	sb.WriteString(fmt.Sprintf("| Signals | %d |\n", s.TotalSignals))
	sb.WriteString(fmt.Sprintf("| Legs | %d |\n", s.NumLegs))
	sb.WriteString(fmt.Sprintf("| Dropped Legs | %d |\n", s.DroppedLegs))
	sb.WriteString("\n")

	if s.Halted {
		halted := "unknown time"
		if s.HaltedAt != nil {
			halted = time.UnixMilli(*s.HaltedAt).UTC().Format(time.RFC3339)
		}
		sb.WriteString(fmt.Sprintf("**Halted** at %s: drawdown limit reached.\n\n", halted))
	}

	// Traders
	sb.WriteString("## Smart Traders\n\n")
	if len(r.Traders) > 0 {
		sb.WriteString("| Address | Score | Eligible | Trades | WinRate | Payoff | Expectancy | Trades/Day |\n")
		sb.WriteString("|---------|-------|----------|--------|---------|--------|------------|------------|\n")
		for _, t := range r.Traders {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %t | %d | %.4f | %.4f | %.4f | %.2f |\n",
				t.Address, t.Score, t.Eligible, t.NumTrades, t.WinRate, t.PayoffRatio, t.Expectancy, t.TradesPerDay))
		}
	} else {
		sb.WriteString("No universe entries for this window.\n")
	}
	sb.WriteString("\n")

	// Symbol breakdown
	sb.WriteString("## Per-Symbol Results\n\n")
	if len(r.SymbolBreakdown) > 0 {
		sb.WriteString("| Symbol | Legs | WinRate | PnL | Fees |\n")
		sb.WriteString("|--------|------|---------|-----|------|\n")
		for _, row := range r.SymbolBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.4f | %.4f | %.4f |\n",
				row.Symbol, row.Legs, row.WinRate, row.PnL, row.Fees))
		}
	} else {
		sb.WriteString("No legs were opened.\n")
	}
	sb.WriteString("\n")

	// Legs
	if len(s.Legs) > 0 {
		sb.WriteString("## Legs\n\n")
		sb.WriteString("| # | Trader | Symbol | Side | Entry | Exit | R | PnL |\n")
		sb.WriteString("|---|--------|--------|------|-------|------|---|-----|\n")
		for i, l := range s.Legs {
			if i == maxMarkdownLegs {
				break
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %.4f | %.4f | %.4f | %.4f |\n",
				l.SignalIndex, l.Trader, l.Symbol, l.Side, l.EntryPrice, l.ExitPrice, l.R, l.PnL))
		}
		if len(s.Legs) > maxMarkdownLegs {
			sb.WriteString(fmt.Sprintf("\n%d more legs in the CSV export.\n", len(s.Legs)-maxMarkdownLegs))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}

// sideLabel keeps the enum readable in tables.
func sideLabel(s domain.Side) string {
	return strings.ToUpper(s.String())
}
