package verification

import (
	"context"
	"fmt"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// Replayer recomputes a backtest summary from resolved params.
// *backtest.Runner implements it.
type Replayer interface {
	Replay(ctx context.Context, p domain.BacktestParams) (*domain.BacktestSummary, error)
}

// RunVerifier implements Verifier over a run store.
type RunVerifier struct {
	runs     storage.BacktestRunStore
	replayer Replayer
}

// Compile-time interface check.
var _ Verifier = (*RunVerifier)(nil)

// NewRunVerifier creates a RunVerifier.
func NewRunVerifier(runs storage.BacktestRunStore, replayer Replayer) *RunVerifier {
	return &RunVerifier{runs: runs, replayer: replayer}
}

// VerifyRun replays one stored run with its persisted params.
// A missing run returns storage.ErrNotFound.
func (v *RunVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	run, err := v.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return v.verify(ctx, run)
}

func (v *RunVerifier) verify(ctx context.Context, run *domain.BacktestRun) (*VerificationResult, error) {
	replayed, err := v.replayer.Replay(ctx, run.Params)
	if err != nil {
		return nil, fmt.Errorf("replay run %s: %w", run.ID, err)
	}
	divs := CompareSummaries(&run.Summary, replayed)
	return &VerificationResult{
		RunID:       run.ID,
		Match:       len(divs) == 0,
		Divergences: divs,
		StoredPnL:   run.Summary.TotalPnL,
		ReplayedPnL: replayed.TotalPnL,
	}, nil
}

// VerifyRecent verifies up to limit of the newest stored runs.
func (v *RunVerifier) VerifyRecent(ctx context.Context, limit int) (*VerificationReport, error) {
	runs, err := v.runs.List(ctx, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	report := &VerificationReport{Results: make([]VerificationResult, 0, len(runs))}
	for _, run := range runs {
		res, err := v.verify(ctx, run)
		if err != nil {
			return nil, err
		}
		report.TotalRuns++
		if res.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
		report.Results = append(report.Results, *res)
	}
	return report, nil
}
