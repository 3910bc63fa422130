package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// TraderStore implements storage.TraderStore using PostgreSQL.
type TraderStore struct {
	pool *Pool
}

// NewTraderStore creates a new TraderStore.
func NewTraderStore(pool *Pool) *TraderStore {
	return &TraderStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TraderStore = (*TraderStore)(nil)

const traderColumns = `id, address, created_at, updated_at`

// GetOrCreate returns the trader with the given address, inserting it if absent.
func (s *TraderStore) GetOrCreate(ctx context.Context, address string) (*domain.Trader, bool, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, false, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO traders (address) VALUES ($1)
		ON CONFLICT (address) DO NOTHING
		RETURNING ` + traderColumns

	t, err := scanTrader(s.pool.QueryRow(ctx, query, address))
	if err == nil {
		return t, true, nil
	}
	if !isNotFoundError(err) {
		return nil, false, fmt.Errorf("insert trader: %w", err)
	}

	// Conflict: the row already exists.
	t, err = s.GetByAddress(ctx, address)
	if err != nil {
		return nil, false, err
	}
	return t, false, nil
}

// GetByID retrieves a trader by ID. Returns ErrNotFound if not exists.
func (s *TraderStore) GetByID(ctx context.Context, id int64) (*domain.Trader, error) {
	query := `SELECT ` + traderColumns + ` FROM traders WHERE id = $1`

	t, err := scanTrader(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trader by id: %w", err)
	}
	return t, nil
}

// GetByAddress retrieves a trader by address. Returns ErrNotFound if not exists.
func (s *TraderStore) GetByAddress(ctx context.Context, address string) (*domain.Trader, error) {
	query := `SELECT ` + traderColumns + ` FROM traders WHERE address = $1`

	t, err := scanTrader(s.pool.QueryRow(ctx, query, strings.TrimSpace(address)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trader by address: %w", err)
	}
	return t, nil
}

// List retrieves traders ordered by ID ASC.
func (s *TraderStore) List(ctx context.Context, limit, offset int) ([]*domain.Trader, error) {
	query := `
		SELECT ` + traderColumns + `
		FROM traders
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, limitArg(limit), max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list traders: %w", err)
	}
	defer rows.Close()

	var result []*domain.Trader
	for rows.Next() {
		t, err := scanTrader(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trader: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traders: %w", err)
	}
	return result, nil
}

// Count returns the number of traders.
func (s *TraderStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM traders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count traders: %w", err)
	}
	return n, nil
}

func scanTrader(row pgx.Row) (*domain.Trader, error) {
	var t domain.Trader
	if err := row.Scan(&t.ID, &t.Address, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
