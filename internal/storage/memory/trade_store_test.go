package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

func TestTradeStore_InsertBulkDuplicate(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trades := []*domain.Trade{
		{ID: "t1", TraderID: 1, Symbol: "BTC", Side: domain.SideLong, OpenedAt: 1000},
		{ID: "t1", TraderID: 1, Symbol: "BTC", Side: domain.SideLong, OpenedAt: 2000},
	}

	err := store.InsertBulk(ctx, trades)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	// Nothing from the failed batch is visible
	got, _ := store.GetByTrader(ctx, 1, 0)
	if len(got) != 0 {
		t.Errorf("Expected empty store after failed batch, got %d trades", len(got))
	}
}

func TestTradeStore_GetByTradersTimeRange(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trades := []*domain.Trade{
		{ID: "c", TraderID: 1, OpenedAt: 3000},
		{ID: "a", TraderID: 1, OpenedAt: 1000},
		{ID: "b", TraderID: 2, OpenedAt: 1000},
		{ID: "d", TraderID: 3, OpenedAt: 2000},
		{ID: "e", TraderID: 1, OpenedAt: 5000},
	}
	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTradersTimeRange(ctx, []int64{1, 2}, 1000, 3000)
	if err != nil {
		t.Fatalf("GetByTradersTimeRange failed: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d trades, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}

	existing, _ := store.ExistingIDs(ctx, []string{"a", "zzz"})
	if _, ok := existing["a"]; !ok || len(existing) != 1 {
		t.Errorf("Unexpected ExistingIDs result: %v", existing)
	}
}
