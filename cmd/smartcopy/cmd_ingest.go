package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/ingestion"
)

func syncTradersCmd(g *globals) *cobra.Command {
	var req ingestion.SyncRequest
	cmd := &cobra.Command{
		Use:   "sync-traders",
		Short: "Import Hyperliquid fills of leaderboard or explicit traders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			if req.WindowDays <= 0 {
				req.WindowDays = a.cfg.Hyperliquid.SyncWindowDays
			}
			if req.Limit <= 0 {
				req.Limit = a.cfg.Hyperliquid.SyncLimit
			}
			res, err := a.syncer.Sync(ctx, req)
			if err != nil {
				return err
			}
			printSyncResult(cmd, res)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&req.Addresses, "address", nil, "trader address to sync (repeatable); skips the leaderboard")
	f.IntVar(&req.WindowDays, "window-days", 0, "fill lookback (default hyperliquid.sync_window_days)")
	f.IntVar(&req.Limit, "limit", 0, "max leaderboard traders (default hyperliquid.sync_limit)")
	f.IntVar(&req.MinTrades, "min-trades", 0, "leaderboard minimum trade count")
	return cmd
}

func loadCSVCmd(g *globals) *cobra.Command {
	var (
		opts              ingestion.CSVOptions
		minPnL, minVolume float64
		sync              bool
		windowDays        int
	)
	cmd := &cobra.Command{
		Use:   "load-csv FILE",
		Short: "Select candidate addresses from a leaderboard CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			opts.MinPnL = decimal.NewFromFloat(minPnL)
			opts.MinVolume = decimal.NewFromFloat(minVolume)
			rows, err := ingestion.LoadAddressesCSV(f, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			table := tablewriter.NewWriter(out)
			table.Header("Address", "PnL", "Volume")
			for _, r := range rows {
				if err := table.Append(r.Address, r.PnL.StringFixed(2), r.Volume.StringFixed(2)); err != nil {
					return err
				}
			}
			if err := table.Render(); err != nil {
				return err
			}
			if !sync || len(rows) == 0 {
				return nil
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			if windowDays <= 0 {
				windowDays = a.cfg.Hyperliquid.SyncWindowDays
			}
			res, err := a.syncer.Sync(ctx, ingestion.SyncRequest{
				Addresses:  ingestion.Addresses(rows),
				WindowDays: windowDays,
			})
			if err != nil {
				return err
			}
			printSyncResult(cmd, res)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.AddressColumn, "address-column", "", "address header (default auto)")
	f.StringVar(&opts.PnLColumn, "pnl-column", "", "PnL header (default auto)")
	f.StringVar(&opts.VolumeColumn, "volume-column", "", "volume header (optional)")
	f.Float64Var(&minPnL, "min-pnl", 0, "keep rows with PnL above this")
	f.Float64Var(&minVolume, "min-volume", 0, "keep rows with volume at least this")
	f.IntVar(&opts.MaxAddresses, "max", 0, "max addresses (default all)")
	f.BoolVar(&sync, "sync", false, "sync fills of the selected addresses")
	f.IntVar(&windowDays, "window-days", 0, "fill lookback when --sync is set")
	return cmd
}

func seedCmd(g *globals) *cobra.Command {
	var (
		opts    ingestion.SeedOptions
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write deterministic demo traders and trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := ingestion.SeedSample(ctx, a.stores.Traders, a.stores.Trades, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seeded %d trades for %d traders\n", res.Trades, len(res.Traders))
			if !refresh {
				return nil
			}
			window := a.universe.SelectionConfig().WindowDays
			summary, err := a.universe.RefreshAll(ctx, window, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "universe window=%dd traders=%d eligible=%d\n",
				summary.WindowDays, summary.TotalTraders, summary.EligibleTraders)
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&opts.Seed, "seed", 42, "random seed")
	f.StringVar(&opts.Symbol, "symbol", "", "coin (default BTC)")
	f.StringSliceVar(&opts.Addresses, "address", nil, "demo trader addresses when none exist")
	f.BoolVar(&refresh, "refresh", true, "refresh the smart universe afterwards")
	return cmd
}

func printSyncResult(cmd *cobra.Command, res *ingestion.SyncResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "source=%s traders=%d failed=%d trades=%d signals=%d\n",
		res.Source, res.TradersSynced, res.TradersFailed, res.TradesInserted, res.SignalsEmitted)
}
