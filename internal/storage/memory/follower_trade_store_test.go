package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
)

func TestFollowerTradeStore_CloseTwice(t *testing.T) {
	store := NewFollowerTradeStore()
	ctx := context.Background()

	ft := &domain.FollowerTrade{ID: "f1", Symbol: "ETH", Side: domain.SideShort, Size: 2, EntryPrice: 100, OpenedAt: 1000, IsOpen: true}
	if err := store.Insert(ctx, ft); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	closed, err := store.Close(ctx, "f1", 90, 5000)
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Short: (entry - exit) * size
	if math.Abs(*closed.PnL-20) > 1e-9 {
		t.Errorf("Expected pnl 20, got %f", *closed.PnL)
	}

	_, err = store.Close(ctx, "f1", 80, 6000)
	if !errors.Is(err, domain.ErrPositionClosed) {
		t.Errorf("Expected ErrPositionClosed, got %v", err)
	}

	open, _ := store.ListOpen(ctx)
	if len(open) != 0 {
		t.Errorf("Expected no open positions, got %d", len(open))
	}
	settled, _ := store.ListClosed(ctx)
	if len(settled) != 1 {
		t.Errorf("Expected one closed position, got %d", len(settled))
	}
}
