package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// WriteRunsTable prints backtest runs, one row per run.
func WriteRunsTable(w io.Writer, runs []*domain.BacktestRun) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Period", "PnL", "MaxDD", "WinRate", "Sharpe", "Legs", "Halted")
	for _, r := range runs {
		if err := table.Append(
			r.ID,
			r.Name,
			r.StartDate+" to "+r.EndDate,
			fmt.Sprintf("%.4f", r.TotalPnL),
			fmt.Sprintf("%.4f", r.MaxDrawdown),
			fmt.Sprintf("%.4f", r.WinRate),
			fmt.Sprintf("%.4f", r.Sharpe),
			fmt.Sprintf("%d", r.Summary.NumLegs),
			fmt.Sprintf("%t", r.Summary.Halted),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteSummaryTable prints the headline metrics of one run.
func WriteSummaryTable(w io.Writer, run *domain.BacktestRun) error {
	s := run.Summary
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")
	rows := [][]string{
		{"Run", run.ID},
		{"Period", run.StartDate + " to " + run.EndDate},
		{"Traders", fmt.Sprintf("%d", s.NumTraders)},
		{"Signals", fmt.Sprintf("%d", s.TotalSignals)},
		{"Legs", fmt.Sprintf("%d (dropped %d)", s.NumLegs, s.DroppedLegs)},
		{"Final equity", fmt.Sprintf("%.2f", s.FinalEquity)},
		{"Total PnL", fmt.Sprintf("%.4f", s.TotalPnL)},
		{"Return", fmt.Sprintf("%.2f%%", s.TotalReturnPct*100)},
		{"Max drawdown", fmt.Sprintf("%.4f (%.2f%%)", s.MaxDrawdownAbs, s.MaxDrawdownPct*100)},
		{"Win rate", fmt.Sprintf("%.4f", s.WinRate)},
		{"Sharpe", fmt.Sprintf("%.4f", s.Sharpe)},
		{"Halted", fmt.Sprintf("%t", s.Halted)},
	}
	for _, row := range rows {
		if err := table.Append(row[0], row[1]); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteUniverseTable prints universe entries in the given order.
func WriteUniverseTable(w io.Writer, entries []*domain.UniverseEntry) error {
	table := tablewriter.NewWriter(w)
	table.Header("Trader", "Address", "Score", "Eligible", "Trades", "WinRate", "Payoff", "Expectancy", "MaxDD%", "Trades/Day")
	for _, e := range entries {
		if err := table.Append(
			fmt.Sprintf("%d", e.TraderID),
			e.Address,
			fmt.Sprintf("%.4f", e.Score),
			fmt.Sprintf("%t", e.Eligible),
			fmt.Sprintf("%d", e.Profile.NumTrades),
			fmt.Sprintf("%.4f", e.Profile.WinRate),
			fmt.Sprintf("%.4f", e.Profile.PayoffRatio),
			fmt.Sprintf("%.4f", e.Profile.Expectancy),
			fmt.Sprintf("%.2f", e.Profile.MaxDrawdownPct*100),
			fmt.Sprintf("%.2f", e.Profile.TradesPerDay),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteSignalsTable prints signals in the given order.
func WriteSignalsTable(w io.Writer, signals []*domain.Signal) error {
	table := tablewriter.NewWriter(w)
	table.Header("Time", "Symbol", "Side", "Band", "Traders", "Executed", "ID")
	for _, s := range signals {
		if err := table.Append(
			time.UnixMilli(s.CreatedAt).UTC().Format(time.RFC3339),
			s.Symbol,
			sideLabel(s.Side),
			fmt.Sprintf("%.4f-%.4f", s.PriceRangeMin, s.PriceRangeMax),
			fmt.Sprintf("%d", s.SmartTraderCount),
			fmt.Sprintf("%t", s.Executed),
			s.ID,
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteRiskTable prints the risk state.
func WriteRiskTable(w io.Writer, state *domain.RiskState) error {
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")
	rows := [][]string{
		{"Initial equity", fmt.Sprintf("%.2f", state.InitialEquity)},
		{"Current equity", fmt.Sprintf("%.2f", state.CurrentEquity)},
		{"Closed trades", fmt.Sprintf("%d", state.ClosedTrades)},
		{"Max drawdown", fmt.Sprintf("%.4f", state.MaxDrawdownAbs)},
		{"Max drawdown (peak)", fmt.Sprintf("%.2f%%", state.MaxDrawdownPct*100)},
		{"Max drawdown (initial)", fmt.Sprintf("%.2f%%", state.MaxDrawdownPctInitial*100)},
		{"Limit", fmt.Sprintf("%.2f%%", state.Config.MaxDrawdownPct*100)},
		{"Triggered", fmt.Sprintf("%t", state.RiskTriggered)},
	}
	if state.LastEvent != nil {
		rows = append(rows, []string{"Last event", fmt.Sprintf("%s at %s",
			state.LastEvent.EventType,
			time.UnixMilli(state.LastEvent.CreatedAt).UTC().Format(time.RFC3339))})
	}
	for _, row := range rows {
		if err := table.Append(row[0], row[1]); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteFollowerTradesTable prints follower positions.
func WriteFollowerTradesTable(w io.Writer, trades []*domain.FollowerTrade) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Symbol", "Side", "Size", "Entry", "Exit", "PnL")
	for _, t := range trades {
		exit, pnl := "-", "-"
		if t.ExitPrice != nil {
			exit = fmt.Sprintf("%.4f", *t.ExitPrice)
		}
		if t.PnL != nil {
			pnl = fmt.Sprintf("%.4f", *t.PnL)
		}
		if err := table.Append(
			t.ID,
			t.Symbol,
			sideLabel(t.Side),
			fmt.Sprintf("%.4f", t.Size),
			fmt.Sprintf("%.4f", t.EntryPrice),
			exit,
			pnl,
		); err != nil {
			return err
		}
	}
	return table.Render()
}
