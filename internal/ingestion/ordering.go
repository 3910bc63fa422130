package ingestion

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// ErrInvalidOrdering is returned when trades are not properly ordered.
var ErrInvalidOrdering = errors.New("trades are not in deterministic order")

// SortTrades orders trades by (opened_at ASC, id ASC).
func SortTrades(trades []*domain.Trade) {
	sort.Slice(trades, func(i, j int) bool {
		return compareTrades(trades[i], trades[j]) < 0
	})
}

// orderBatch sorts a batch bound for InsertBulk and rejects it when two
// trades share a sort key, which means a repeated trade ID within the batch.
func orderBatch(trades []*domain.Trade) error {
	SortTrades(trades)
	if err := ValidateTradeOrdering(trades); err != nil {
		return fmt.Errorf("order %d trades: %w", len(trades), err)
	}
	return nil
}

// ValidateTradeOrdering checks if trades are strictly ordered.
// Returns ErrInvalidOrdering if not.
func ValidateTradeOrdering(trades []*domain.Trade) error {
	for i := 1; i < len(trades); i++ {
		if compareTrades(trades[i-1], trades[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareTrades returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (opened_at ASC, id ASC)
func compareTrades(a, b *domain.Trade) int {
	if a.OpenedAt != b.OpenedAt {
		if a.OpenedAt < b.OpenedAt {
			return -1
		}
		return 1
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	return 0
}
