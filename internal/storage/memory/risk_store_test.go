package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

func TestRiskConfigStore_GetOrCreateIsStable(t *testing.T) {
	store := NewRiskConfigStore()
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, domain.RiskConfig{MaxDrawdownPct: 0.3})
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	second, _ := store.GetOrCreate(ctx, domain.RiskConfig{MaxDrawdownPct: 0.9})
	if second.ID != first.ID || second.MaxDrawdownPct != 0.3 {
		t.Errorf("Expected existing config to be returned, got %+v", second)
	}

	second.MaxDrawdownPct = 0.2
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	third, _ := store.GetOrCreate(ctx, domain.RiskConfig{})
	if third.MaxDrawdownPct != 0.2 {
		t.Errorf("Expected updated threshold 0.2, got %f", third.MaxDrawdownPct)
	}
}

func TestRiskEventStore_Latest(t *testing.T) {
	store := NewRiskEventStore()
	ctx := context.Background()

	_, err := store.Latest(ctx)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	for _, id := range []string{"e1", "e2"} {
		e := &domain.RiskEvent{ID: id, EventType: domain.RiskEventMaxDrawdownHit, CreatedAt: 1000}
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.ID != "e2" {
		t.Errorf("Expected most recent insert on timestamp tie, got %s", latest.ID)
	}
}
