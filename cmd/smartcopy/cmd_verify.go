package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/verification"
)

func verifyBacktestCmd(g *globals) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "verify-backtest [RUN_ID]",
		Short: "Replay stored backtest runs and report divergences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			v := verification.NewRunVerifier(a.stores.BacktestRuns, a.backtests)
			var results []verification.VerificationResult
			if len(args) == 1 {
				res, err := v.VerifyRun(ctx, args[0])
				if err != nil {
					return err
				}
				results = append(results, *res)
			} else {
				report, err := v.VerifyRecent(ctx, recent)
				if err != nil {
					return err
				}
				results = report.Results
			}

			out := cmd.OutOrStdout()
			table := tablewriter.NewWriter(out)
			table.Header("Run", "Match", "Stored PnL", "Replayed PnL", "Divergences")
			divergent := 0
			for _, r := range results {
				fields := make([]string, 0, len(r.Divergences))
				for _, d := range r.Divergences {
					fields = append(fields, d.Field)
				}
				if !r.Match {
					divergent++
				}
				if err := table.Append(r.RunID, strconv.FormatBool(r.Match),
					fmt.Sprintf("%.4f", r.StoredPnL), fmt.Sprintf("%.4f", r.ReplayedPnL),
					strings.Join(fields, ", ")); err != nil {
					return err
				}
			}
			if err := table.Render(); err != nil {
				return err
			}
			if divergent > 0 {
				return fmt.Errorf("%d of %d runs diverged", divergent, len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&recent, "recent", 10, "runs to verify when no RUN_ID is given")
	return cmd
}
