package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// Generator produces reports from stored backtest runs.
type Generator struct {
	runs     storage.BacktestRunStore
	universe storage.UniverseStore
	now      func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(runs storage.BacktestRunStore, universe storage.UniverseStore) *Generator {
	return &Generator{
		runs:     runs,
		universe: universe,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads run runID and builds its report.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	run, err := g.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get backtest run %s: %w", runID, err)
	}
	return g.Build(ctx, run)
}

// Build creates the report of an already loaded run.
func (g *Generator) Build(ctx context.Context, run *domain.BacktestRun) (*Report, error) {
	traders, err := g.traderRows(ctx, run.Params)
	if err != nil {
		return nil, err
	}
	return &Report{
		GeneratedAt:     g.now(),
		Run:             run,
		Traders:         traders,
		SymbolBreakdown: SymbolBreakdown(run.Summary.Legs),
	}, nil
}

// traderRows lists the universe entries the run selected from.
func (g *Generator) traderRows(ctx context.Context, p domain.BacktestParams) ([]TraderRow, error) {
	if g.universe == nil {
		return nil, nil
	}
	entries, err := g.universe.List(ctx, domain.UniverseFilter{
		WindowDays:      p.WindowDays,
		MinScore:        p.MinScore,
		MinTradesPerDay: p.MinTradesPerDay,
	})
	if err != nil {
		return nil, fmt.Errorf("list universe: %w", err)
	}
	rows := make([]TraderRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, TraderRow{
			Address:      e.Address,
			Score:        e.Score,
			Eligible:     e.Eligible,
			NumTrades:    e.Profile.NumTrades,
			WinRate:      e.Profile.WinRate,
			PayoffRatio:  e.Profile.PayoffRatio,
			Expectancy:   e.Profile.Expectancy,
			TradesPerDay: e.Profile.TradesPerDay,
		})
	}
	return rows, nil
}

// SymbolBreakdown aggregates legs per symbol, sorted by symbol.
func SymbolBreakdown(legs []domain.Leg) []SymbolRow {
	bySymbol := make(map[string]*SymbolRow)
	for _, l := range legs {
		row, ok := bySymbol[l.Symbol]
		if !ok {
			row = &SymbolRow{Symbol: l.Symbol}
			bySymbol[l.Symbol] = row
		}
		row.Legs++
		if l.PnL > 0 {
			row.Wins++
		}
		row.PnL += l.PnL
		row.Fees += l.Fee
	}

	rows := make([]SymbolRow, 0, len(bySymbol))
	for _, row := range bySymbol {
		if row.Legs > 0 {
			row.WinRate = float64(row.Wins) / float64(row.Legs)
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Symbol < rows[j].Symbol
	})
	return rows
}
