package ingestion

import (
	"context"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/hyperliquid"
)

// FillSource provides normalized venue fills of one account.
type FillSource interface {
	// UserFillsByTime returns fills of address within [startMs, endMs] and the
	// number of raw fills dropped per reason. Fills may be unordered; the
	// Syncer enforces deterministic ordering.
	UserFillsByTime(ctx context.Context, address string, startMs, endMs int64) ([]hyperliquid.Fill, map[string]int, error)
}

// CandidateSource discovers candidate trader addresses.
type CandidateSource interface {
	// Leaderboard returns up to limit candidates for window (e.g. "30d").
	Leaderboard(ctx context.Context, window string, limit int) ([]hyperliquid.LeaderboardRow, error)
}

// UniverseRefresher is the subset of the universe service the Syncer needs.
type UniverseRefresher interface {
	RefreshTrader(ctx context.Context, traderID int64, windowDays int) (*domain.UniverseEntry, error)
	List(ctx context.Context, f domain.UniverseFilter) ([]*domain.UniverseEntry, error)
}

var (
	_ FillSource      = (*hyperliquid.Client)(nil)
	_ CandidateSource = (*hyperliquid.Client)(nil)
)
