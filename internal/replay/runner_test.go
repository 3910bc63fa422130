package replay

import (
	"context"
	"errors"
	"testing"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage/memory"
)

var errOutOfOrder = errors.New("events out of order")

// collectingEngine collects events for verification.
type collectingEngine struct {
	events []*Event
}

func (e *collectingEngine) OnEvent(_ context.Context, event *Event) error {
	e.events = append(e.events, event)
	return nil
}

// orderValidatingEngine validates that events are received in order.
type orderValidatingEngine struct {
	last *Event
}

func (e *orderValidatingEngine) OnEvent(_ context.Context, event *Event) error {
	if e.last != nil && compareEvents(e.last, event) > 0 {
		return errOutOfOrder
	}
	e.last = event
	return nil
}

func trade(id string, traderID, openedAt int64) *domain.Trade {
	return &domain.Trade{
		ID:         id,
		TraderID:   traderID,
		Symbol:     "ETH",
		Side:       domain.SideLong,
		Size:       1,
		EntryPrice: 2000,
		OpenedAt:   openedAt,
	}
}

func seedTraders(t *testing.T, ctx context.Context, addresses ...string) ([]*domain.Trader, *memory.TradeStore) {
	t.Helper()
	traderStore := memory.NewTraderStore()
	var traders []*domain.Trader
	for _, a := range addresses {
		tr, _, err := traderStore.GetOrCreate(ctx, a)
		if err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		traders = append(traders, tr)
	}
	return traders, memory.NewTradeStore()
}

func TestRunner_OrdersEventsDeterministically(t *testing.T) {
	ctx := context.Background()
	traders, tradeStore := seedTraders(t, ctx, "0xa", "0xb")

	trades := []*domain.Trade{
		trade("t3", traders[0].ID, 3000),
		trade("t1", traders[1].ID, 1000),
		trade("t2", traders[0].ID, 2000),
		trade("t0", traders[1].ID, 1000),
	}
	if err := tradeStore.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	runner := NewRunner(tradeStore)
	events, err := runner.Run(ctx, traders, 0, 10000, &orderValidatingEngine{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(events))
	}
	if events[0].Trade.ID != "t0" || events[1].Trade.ID != "t1" {
		t.Errorf("Equal timestamps should order by trade ID, got %s, %s", events[0].Trade.ID, events[1].Trade.ID)
	}
}

func TestRunner_AppliesTimeRange(t *testing.T) {
	ctx := context.Background()
	traders, tradeStore := seedTraders(t, ctx, "0xa")

	trades := []*domain.Trade{
		trade("before", traders[0].ID, 500),
		trade("start", traders[0].ID, 1000),
		trade("end", traders[0].ID, 2000),
		trade("after", traders[0].ID, 2001),
	}
	if err := tradeStore.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	engine := &collectingEngine{}
	if _, err := NewRunner(tradeStore).Run(ctx, traders, 1000, 2000, engine); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(engine.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(engine.events))
	}
	if engine.events[0].Trade.ID != "start" || engine.events[1].Trade.ID != "end" {
		t.Error("Range bounds should be inclusive")
	}
	if engine.events[0].TraderAddress != "0xa" {
		t.Errorf("Expected address 0xa, got %s", engine.events[0].TraderAddress)
	}
}

func TestRunner_Empty(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(memory.NewTradeStore())
	engine := &collectingEngine{}

	if _, err := runner.Run(ctx, nil, 0, 10000, engine); err != nil {
		t.Errorf("Empty run should not error: %v", err)
	}
	if len(engine.events) != 0 {
		t.Errorf("Expected 0 events, got %d", len(engine.events))
	}
}

func TestBuildEvents_SkipsUnknownTraders(t *testing.T) {
	trades := []*domain.Trade{
		trade("t1", 1, 100),
		trade("t2", 2, 50),
	}

	events := BuildEvents(trades, map[int64]string{1: "0xa"})

	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Trade.ID != "t1" {
		t.Errorf("Expected t1, got %s", events[0].Trade.ID)
	}
}

func TestSortEvents_TieBreaker(t *testing.T) {
	events := []*Event{
		{TraderAddress: "0xb", Trade: trade("t1", 2, 100)},
		{TraderAddress: "0xa", Trade: trade("t2", 1, 100)},
	}

	// sort.Slice is not stable, so shuffle between runs
	for run := 0; run < 10; run++ {
		if run%2 == 0 {
			events[0], events[1] = events[1], events[0]
		}

		SortEvents(events)

		if events[0].TraderAddress != "0xa" {
			t.Errorf("Run %d: first event should be 0xa, got %s", run, events[0].TraderAddress)
		}
	}
}

func TestEvent_TradeEvent(t *testing.T) {
	ev := &Event{TraderAddress: "0xa", Trade: trade("t1", 1, 1234)}

	te := ev.TradeEvent()
	if te.TraderAddress != "0xa" || te.Price != 2000 || te.Timestamp != 1234 || te.Side != domain.SideLong {
		t.Errorf("Unexpected trade event: %+v", te)
	}
	if err := te.Validate(); err != nil {
		t.Errorf("Converted event should be valid: %v", err)
	}
}
