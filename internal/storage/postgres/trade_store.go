package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `id, trader_id, symbol, side, size, entry_price, exit_price,
	realized_pnl, opened_at, closed_at, raw_data`

const insertTradeQuery = `
	INSERT INTO trades (` + tradeColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade ID exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	if _, err := s.pool.Exec(ctx, insertTradeQuery, tradeArgs(t)...); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades in one transaction. Any duplicate rolls back the batch.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	for _, t := range trades {
		if t == nil || t.ID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(insertTradeQuery, tradeArgs(t)...)
	}

	br := tx.SendBatch(ctx, batch)
	for range trades {
		if _, err := br.Exec(); err != nil {
			br.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade batch: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ExistingIDs returns the subset of ids already stored.
func (s *TradeStore) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	result := make(map[string]struct{})
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT id FROM trades WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query existing trade ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan trade id: %w", err)
		}
		result[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade ids: %w", err)
	}
	return result, nil
}

// GetByTrader retrieves trades of a trader with opened_at >= since.
func (s *TradeStore) GetByTrader(ctx context.Context, traderID int64, since int64) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE trader_id = $1 AND opened_at >= $2
		ORDER BY opened_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, traderID, since)
	if err != nil {
		return nil, fmt.Errorf("get trades by trader: %w", err)
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
		FROM trades
		WHERE trader_id = ANY($1) AND opened_at >= $2 AND opened_at <= $3
		ORDER BY opened_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, traderIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("get trades by time range: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

func tradeArgs(t *domain.Trade) []any {
	var raw []byte
	if len(t.RawData) > 0 {
		raw = t.RawData
	}
	return []any{
		t.ID,
		t.TraderID,
		t.Symbol,
		string(t.Side),
		t.Size,
		t.EntryPrice,
		t.ExitPrice,
		t.RealizedPnL,
		t.OpenedAt,
		t.ClosedAt,
		raw,
	}
}

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	var side string
	var raw []byte

	err := row.Scan(
		&t.ID,
		&t.TraderID,
		&t.Symbol,
		&side,
		&t.Size,
		&t.EntryPrice,
		&t.ExitPrice,
		&t.RealizedPnL,
		&t.OpenedAt,
		&t.ClosedAt,
		&raw,
	)
	if err != nil {
		return nil, err
	}

	t.Side = domain.Side(side)
	if len(raw) > 0 {
		t.RawData = raw
	}
	return &t, nil
}

func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var result []*domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return result, nil
}
