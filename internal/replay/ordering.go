package replay

import (
	"sort"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

// SortEvents orders events by (opened_at ASC, trader_address ASC, trade_id ASC).
// Timestamps are non-decreasing afterwards, which the signal engine requires.
func SortEvents(events []*Event) {
	sort.Slice(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// BuildEvents pairs trades with their trader addresses and sorts them.
// Trades whose trader is not in addresses are skipped.
func BuildEvents(trades []*domain.Trade, addresses map[int64]string) []*Event {
	events := make([]*Event, 0, len(trades))
	for _, t := range trades {
		addr, ok := addresses[t.TraderID]
		if !ok {
			continue
		}
		events = append(events, &Event{TraderAddress: addr, Trade: t})
	}
	SortEvents(events)
	return events
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (opened_at ASC, trader_address ASC, trade_id ASC)
func compareEvents(a, b *Event) int {
	if a.Trade.OpenedAt != b.Trade.OpenedAt {
		if a.Trade.OpenedAt < b.Trade.OpenedAt {
			return -1
		}
		return 1
	}
	if a.TraderAddress != b.TraderAddress {
		if a.TraderAddress < b.TraderAddress {
			return -1
		}
		return 1
	}
	if a.Trade.ID != b.Trade.ID {
		if a.Trade.ID < b.Trade.ID {
			return -1
		}
		return 1
	}
	return 0
}
