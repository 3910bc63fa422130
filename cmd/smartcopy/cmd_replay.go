package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/replay"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/reporting"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/signal"
)

// signalCollector adapts a signal processor to replay.ReplayEngine.
type signalCollector struct {
	process func(context.Context, domain.TradeEvent) (*domain.Signal, error)
	signals []*domain.Signal
}

func (c *signalCollector) OnEvent(ctx context.Context, ev *replay.Event) error {
	sig, err := c.process(ctx, ev.TradeEvent())
	if err != nil {
		return err
	}
	if sig != nil {
		c.signals = append(c.signals, sig)
	}
	return nil
}

func replaySignalsCmd(g *globals) *cobra.Command {
	var (
		start, end string
		windowDays int
		persist    bool
	)
	cmd := &cobra.Command{
		Use:   "replay-signals",
		Short: "Replay eligible traders' stored trades through the signal engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := time.Parse(domain.DateLayout, start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			to, err := time.Parse(domain.DateLayout, end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			if to.Before(from) {
				return fmt.Errorf("--end %s is before --start %s", end, start)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			eligible, err := a.universe.Eligible(ctx, windowDays)
			if err != nil {
				return err
			}
			traders := eligible.Traders

			collector := &signalCollector{process: a.signals.Engine(signal.AddressSet(eligible.Addresses)).Process}
			if persist {
				collector.process = a.signals.Ingest
			}

			endMs := to.Add(24*time.Hour).UnixMilli() - 1
			events, err := replay.NewRunner(a.stores.Trades).Run(ctx, traders, from.UnixMilli(), endMs, collector)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "traders=%d events=%d signals=%d\n", len(traders), len(events), len(collector.signals))
			if len(collector.signals) == 0 {
				return nil
			}
			return reporting.WriteSignalsTable(out, collector.signals)
		},
	}
	f := cmd.Flags()
	f.StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	f.StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	f.IntVar(&windowDays, "window-days", 0, "universe window (default selection.window_days)")
	f.BoolVar(&persist, "persist", false, "store emitted signals through the live service")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
