package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// UniverseStore implements storage.UniverseStore using PostgreSQL.
type UniverseStore struct {
	pool *Pool
}

// NewUniverseStore creates a new UniverseStore.
func NewUniverseStore(pool *Pool) *UniverseStore {
	return &UniverseStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UniverseStore = (*UniverseStore)(nil)

const universeSelect = `
	SELECT u.trader_id, t.address, u.window_days, u.profile, u.score, u.eligible,
		u.filters_snapshot, u.sharpe_window, u.created_at, u.updated_at
	FROM smart_trader_universe u
	JOIN traders t ON t.id = u.trader_id
`

// Upsert inserts the entry or overwrites the existing (trader_id, window_days) row.
// created_at of an existing row is preserved.
func (s *UniverseStore) Upsert(ctx context.Context, e *domain.UniverseEntry) error {
	if e == nil || e.TraderID == 0 || e.WindowDays <= 0 {
		return storage.ErrInvalidInput
	}

	profile, err := marshalJSONB(e.Profile)
	if err != nil {
		return err
	}
	filters, err := marshalJSONB(e.FiltersSnapshot)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	createdAt, updatedAt := e.CreatedAt, e.UpdatedAt
	if createdAt == 0 {
		createdAt = now
	}
	if updatedAt == 0 {
		updatedAt = now
	}

	query := `
		INSERT INTO smart_trader_universe (
			trader_id, window_days, profile, score, eligible,
			filters_snapshot, sharpe_window, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (trader_id, window_days) DO UPDATE SET
			profile = EXCLUDED.profile,
			score = EXCLUDED.score,
			eligible = EXCLUDED.eligible,
			filters_snapshot = EXCLUDED.filters_snapshot,
			sharpe_window = EXCLUDED.sharpe_window,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	err = s.pool.QueryRow(ctx, query,
		e.TraderID,
		e.WindowDays,
		profile,
		e.Score,
		e.Eligible,
		filters,
		e.SharpeWindow,
		createdAt,
		updatedAt,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert universe entry: %w", err)
	}
	return nil
}

// Get retrieves the entry for (traderID, windowDays). Returns ErrNotFound if not exists.
func (s *UniverseStore) Get(ctx context.Context, traderID int64, windowDays int) (*domain.UniverseEntry, error) {
	query := universeSelect + `WHERE u.trader_id = $1 AND u.window_days = $2`

	e, err := scanUniverseEntry(s.pool.QueryRow(ctx, query, traderID, windowDays))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get universe entry: %w", err)
	}
	return e, nil
}

// List retrieves entries matching the filter ordered by score DESC, then trader_id ASC.
// Nil filter thresholds compare against NULL and pass every row.
func (s *UniverseStore) List(ctx context.Context, f domain.UniverseFilter) ([]*domain.UniverseEntry, error) {
	query := universeSelect + `
		WHERE u.window_days = $1
			AND (NOT $2 OR u.eligible)
			AND ($3::DOUBLE PRECISION IS NULL OR u.score >= $3)
			AND ($4::DOUBLE PRECISION IS NULL OR (u.profile->>'payoff_ratio')::DOUBLE PRECISION >= $4)
			AND ($5::DOUBLE PRECISION IS NULL OR (u.profile->>'trades_per_day')::DOUBLE PRECISION >= $5)
		ORDER BY u.score DESC, u.trader_id ASC
		LIMIT $6
	`

	rows, err := s.pool.Query(ctx, query,
		f.WindowDays,
		f.EligibleOnly,
		f.MinScore,
		f.MinPayoffRatio,
		f.MinTradesPerDay,
		limitArg(f.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list universe: %w", err)
	}
	defer rows.Close()

	var result []*domain.UniverseEntry
	for rows.Next() {
		e, err := scanUniverseEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan universe entry: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate universe: %w", err)
	}
	return result, nil
}

func scanUniverseEntry(row pgx.Row) (*domain.UniverseEntry, error) {
	var e domain.UniverseEntry
	err := row.Scan(
		&e.TraderID,
		&e.Address,
		&e.WindowDays,
		&e.Profile,
		&e.Score,
		&e.Eligible,
		&e.FiltersSnapshot,
		&e.SharpeWindow,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
