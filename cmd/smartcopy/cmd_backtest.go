package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/reporting"
)

func backtestCmd(g *globals) *cobra.Command {
	var (
		req      domain.BacktestRequest
		minScore float64
		outDir   string
	)
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay smart-trader history through the strategy and persist the run",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("min-score") {
				req.MinScore = &minScore
			}
			run, err := a.backtests.Run(ctx, req)
			if err != nil {
				return err
			}
			if err := reporting.WriteSummaryTable(cmd.OutOrStdout(), run); err != nil {
				return err
			}
			if outDir == "" {
				return nil
			}

			report, err := reporting.NewGenerator(a.stores.BacktestRuns, a.stores.Universe).Build(ctx, run)
			if err != nil {
				return err
			}
			if err := writeReportFiles(outDir, report); err != nil {
				return err
			}
			a.logger.Info("report written", zap.String("dir", outDir), zap.String("run_id", run.ID))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.StartDate, "start", "", "first day, YYYY-MM-DD")
	f.StringVar(&req.EndDate, "end", "", "last day, YYYY-MM-DD")
	f.IntVar(&req.WindowDays, "window-days", 0, "universe window used to pick traders")
	f.StringVar(&req.Name, "name", "", "run name")
	f.Float64Var(&minScore, "min-score", 0, "only follow traders scoring at least this")
	f.StringVar(&outDir, "out-dir", "", "write report.md, legs.csv and equity.csv here")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func writeReportFiles(dir string, r *reporting.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	files := map[string]string{
		"report.md":  reporting.RenderMarkdown(r),
		"legs.csv":   reporting.RenderLegsCSV(r.Run.Summary.Legs),
		"equity.csv": reporting.RenderEquityCSV(r.Run.Summary.EquityCurve),
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
