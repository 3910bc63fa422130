package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/reporting"
)

func riskStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "risk-status",
		Short: "Show follower equity, drawdown and the risk lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.risk.Status(ctx)
			if err != nil {
				return err
			}
			return reporting.WriteRiskTable(cmd.OutOrStdout(), state)
		},
	}
}

func forceLiquidateCmd(g *globals) *cobra.Command {
	var (
		rawPrices map[string]string
		reason    string
	)
	cmd := &cobra.Command{
		Use:   "force-liquidate",
		Short: "Close every open follower position",
		RunE: func(cmd *cobra.Command, args []string) error {
			prices, err := parsePrices(rawPrices)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			closed, err := a.execution.CloseAll(ctx, prices, reason)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "closed %d positions\n", len(closed))
			if len(closed) == 0 {
				return nil
			}
			return reporting.WriteFollowerTradesTable(out, closed)
		},
	}
	cmd.Flags().StringToStringVar(&rawPrices, "price", nil, "exit price per symbol, e.g. --price BTC=64000 (repeatable)")
	cmd.Flags().StringVar(&reason, "reason", "manual force liquidation", "recorded close reason")
	return cmd
}

// parsePrices converts SYMBOL=PX flags. Symbols are case-sensitive venue coins.
func parsePrices(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	prices := make(map[string]float64, len(raw))
	for sym, v := range raw {
		px, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || px <= 0 {
			return nil, fmt.Errorf("invalid price for %s: %q", sym, v)
		}
		prices[strings.TrimSpace(sym)] = px
	}
	return prices, nil
}
