package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/reporting"
)

func refreshUniverseCmd(g *globals) *cobra.Command {
	var (
		windowDays int
		topN       int
	)
	cmd := &cobra.Command{
		Use:   "refresh-universe",
		Short: "Recompute every trader's profile and eligibility",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			if windowDays <= 0 {
				windowDays = a.universe.SelectionConfig().WindowDays
			}
			summary, err := a.universe.RefreshAll(ctx, windowDays, topN)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "window=%dd traders=%d eligible=%d\n",
				summary.WindowDays, summary.TotalTraders, summary.EligibleTraders)

			entries, err := a.universe.List(ctx, domain.UniverseFilter{WindowDays: windowDays, Limit: topN})
			if err != nil {
				return err
			}
			return reporting.WriteUniverseTable(out, entries)
		},
	}
	cmd.Flags().IntVar(&windowDays, "window-days", 0, "profile window (default selection.window_days)")
	cmd.Flags().IntVar(&topN, "top-n", 20, "rows to print")
	return cmd
}
