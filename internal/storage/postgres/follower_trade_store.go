package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// FollowerTradeStore implements storage.FollowerTradeStore using PostgreSQL.
type FollowerTradeStore struct {
	pool *Pool
}

// NewFollowerTradeStore creates a new FollowerTradeStore.
func NewFollowerTradeStore(pool *Pool) *FollowerTradeStore {
	return &FollowerTradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FollowerTradeStore = (*FollowerTradeStore)(nil)

const followerTradeColumns = `id, signal_id, symbol, side, size, entry_price, exit_price, pnl,
	opened_at, closed_at, is_open, source_signal_id, source_trader_address`

// Insert adds a new follower trade. Returns ErrDuplicateKey if ID exists.
func (s *FollowerTradeStore) Insert(ctx context.Context, t *domain.FollowerTrade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO follower_trades (` + followerTradeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.pool.Exec(ctx, query,
		t.ID,
		t.SignalID,
		t.Symbol,
		string(t.Side),
		t.Size,
		t.EntryPrice,
		t.ExitPrice,
		t.PnL,
		t.OpenedAt,
		t.ClosedAt,
		t.IsOpen,
		t.SourceSignalID,
		t.SourceTraderAddress,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert follower trade: %w", err)
	}
	return nil
}

// GetByID retrieves a follower trade. Returns ErrNotFound if not exists.
func (s *FollowerTradeStore) GetByID(ctx context.Context, id string) (*domain.FollowerTrade, error) {
	query := `SELECT ` + followerTradeColumns + ` FROM follower_trades WHERE id = $1`

	t, err := scanFollowerTrade(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get follower trade by id: %w", err)
	}
	return t, nil
}

// Close settles an open position under a row lock, computing PnL with
// domain.FollowerTrade.Close. Returns domain.ErrPositionClosed if already closed.
func (s *FollowerTradeStore) Close(ctx context.Context, id string, exitPrice float64, closedAt int64) (*domain.FollowerTrade, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + followerTradeColumns + ` FROM follower_trades WHERE id = $1 FOR UPDATE`
	t, err := scanFollowerTrade(tx.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("lock follower trade: %w", err)
	}

	if err := t.Close(exitPrice, closedAt); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE follower_trades
		SET exit_price = $2, pnl = $3, closed_at = $4, is_open = FALSE
		WHERE id = $1
	`, t.ID, t.ExitPrice, t.PnL, t.ClosedAt)
	if err != nil {
		return nil, fmt.Errorf("close follower trade: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return t, nil
}

// ListOpen retrieves open positions ordered by opened_at ASC, then ID ASC.
func (s *FollowerTradeStore) ListOpen(ctx context.Context) ([]*domain.FollowerTrade, error) {
	query := `
		SELECT ` + followerTradeColumns + `
		FROM follower_trades
		WHERE is_open
		ORDER BY opened_at ASC, id ASC
	`
	return s.list(ctx, query)
}

// ListClosed retrieves settled positions ordered by closed_at ASC, then ID ASC.
func (s *FollowerTradeStore) ListClosed(ctx context.Context) ([]*domain.FollowerTrade, error) {
	query := `
		SELECT ` + followerTradeColumns + `
		FROM follower_trades
		WHERE pnl IS NOT NULL AND closed_at IS NOT NULL
		ORDER BY closed_at ASC, id ASC
	`
	return s.list(ctx, query)
}

func (s *FollowerTradeStore) list(ctx context.Context, query string) ([]*domain.FollowerTrade, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list follower trades: %w", err)
	}
	defer rows.Close()

	var result []*domain.FollowerTrade
	for rows.Next() {
		t, err := scanFollowerTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan follower trade: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follower trades: %w", err)
	}
	return result, nil
}

func scanFollowerTrade(row pgx.Row) (*domain.FollowerTrade, error) {
	var t domain.FollowerTrade
	var side string

	err := row.Scan(
		&t.ID,
		&t.SignalID,
		&t.Symbol,
		&side,
		&t.Size,
		&t.EntryPrice,
		&t.ExitPrice,
		&t.PnL,
		&t.OpenedAt,
		&t.ClosedAt,
		&t.IsOpen,
		&t.SourceSignalID,
		&t.SourceTraderAddress,
	)
	if err != nil {
		return nil, err
	}

	t.Side = domain.Side(side)
	return &t, nil
}
