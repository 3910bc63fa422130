package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// TradeStore implements storage.TradeStore on a ReplacingMergeTree table.
// ClickHouse does not enforce uniqueness, so inserts check ids explicitly and
// reads use FINAL.
type TradeStore struct {
	conn *Conn
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(conn *Conn) *TradeStore {
	return &TradeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `id, trader_id, symbol, side, size, entry_price, exit_price,
	realized_pnl, opened_at, closed_at, raw_data`

// Insert adds a new trade. Returns ErrDuplicateKey if trade ID exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	return s.InsertBulk(ctx, []*domain.Trade{t})
}

// InsertBulk adds multiple trades in one batch. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	ids := make([]string, 0, len(trades))
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[t.ID] = struct{}{}
		ids = append(ids, t.ID)
	}

	existing, err := s.ExistingIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if len(existing) > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO trades (`+tradeColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		err = batch.Append(
			t.ID, t.TraderID, t.Symbol, string(t.Side),
			t.Size, t.EntryPrice, t.ExitPrice, t.RealizedPnL,
			t.OpenedAt, t.ClosedAt, string(t.RawData),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// ExistingIDs returns the subset of ids already stored.
func (s *TradeStore) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	result := make(map[string]struct{})
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.conn.Query(ctx, `SELECT DISTINCT id FROM trades WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query existing ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = struct{}{}
	}
	return result, rows.Err()
}

// GetByTrader retrieves trades of a trader with opened_at >= since.
func (s *TradeStore) GetByTrader(ctx context.Context, traderID int64, since int64) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades FINAL
		WHERE trader_id = ? AND opened_at >= ?
		ORDER BY opened_at ASC, id ASC
	`

	rows, err := s.conn.Query(ctx, query, traderID, since)
	if err != nil {
		return nil, fmt.Errorf("query by trader: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByTradersTimeRange retrieves trades of the given traders opened within [start, end].
func (s *TradeStore) GetByTradersTimeRange(ctx context.Context, traderIDs []int64, start, end int64) ([]*domain.Trade, error) {
	if len(traderIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + tradeColumns + `
		FROM trades FINAL
		WHERE trader_id IN (?) AND opened_at >= ? AND opened_at <= ?
		ORDER BY opened_at ASC, id ASC
	`

	rows, err := s.conn.Query(ctx, query, traderIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func scanTrades(rows driver.Rows) ([]*domain.Trade, error) {
	var result []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		var side, raw string

		err := rows.Scan(
			&t.ID, &t.TraderID, &t.Symbol, &side,
			&t.Size, &t.EntryPrice, &t.ExitPrice, &t.RealizedPnL,
			&t.OpenedAt, &t.ClosedAt, &raw,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		t.Side = domain.Side(side)
		if raw != "" {
			t.RawData = json.RawMessage(raw)
		}
		result = append(result, &t)
	}
	return result, rows.Err()
}
