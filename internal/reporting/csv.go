package reporting

import (
	"fmt"
	"strings"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// RenderLegsCSV renders backtest legs as CSV string.
func RenderLegsCSV(legs []domain.Leg) string {
	var sb strings.Builder

	// Header
	sb.WriteString("signal_index,trader,trade_id,symbol,side,open_time,close_time,")
	sb.WriteString("entry_price,exit_price,notional,r,gross_pnl,fee,pnl\n")

	// Rows
	for _, l := range legs {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%s,%d,%d,%.8f,%.8f,%.8f,%.6f,%.8f,%.8f,%.8f\n",
			l.SignalIndex,
			l.Trader,
			l.TradeID,
			l.Symbol,
			l.Side,
			l.OpenTime,
			l.CloseTime,
			l.EntryPrice,
			l.ExitPrice,
			l.Notional,
			l.R,
			l.GrossPnL,
			l.Fee,
			l.PnL,
		))
	}

	return sb.String()
}

// RenderEquityCSV renders an equity curve as CSV string. Points without a
// timestamp leave the time column empty.
func RenderEquityCSV(curve []domain.EquityPoint) string {
	var sb strings.Builder
	sb.WriteString("step,time,equity\n")
	for _, p := range curve {
		ts := ""
		if p.Time != nil {
			ts = fmt.Sprintf("%d", *p.Time)
		}
		sb.WriteString(fmt.Sprintf("%d,%s,%.6f\n", p.Step, ts, p.Equity))
	}
	return sb.String()
}
