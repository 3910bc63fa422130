package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// BacktestRunStore implements storage.BacktestRunStore using PostgreSQL.
type BacktestRunStore struct {
	pool *Pool
}

// NewBacktestRunStore creates a new BacktestRunStore.
func NewBacktestRunStore(pool *Pool) *BacktestRunStore {
	return &BacktestRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BacktestRunStore = (*BacktestRunStore)(nil)

const backtestRunColumns = `id, name, description, start_date, end_date, params,
	total_pnl, max_drawdown, win_rate, sharpe, summary, created_at`

// Insert adds a new run. Returns ErrDuplicateKey if ID exists.
func (s *BacktestRunStore) Insert(ctx context.Context, r *domain.BacktestRun) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	params, err := marshalJSONB(r.Params)
	if err != nil {
		return err
	}
	summary, err := marshalJSONB(r.Summary)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO backtest_runs (` + backtestRunColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.pool.Exec(ctx, query,
		r.ID,
		r.Name,
		r.Description,
		r.StartDate,
		r.EndDate,
		params,
		r.TotalPnL,
		r.MaxDrawdown,
		r.WinRate,
		r.Sharpe,
		summary,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert backtest run: %w", err)
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *BacktestRunStore) GetByID(ctx context.Context, id string) (*domain.BacktestRun, error) {
	query := `SELECT ` + backtestRunColumns + ` FROM backtest_runs WHERE id = $1`

	r, err := scanBacktestRun(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest run by id: %w", err)
	}
	return r, nil
}

// List retrieves runs ordered by created_at DESC, then ID.
func (s *BacktestRunStore) List(ctx context.Context, limit, offset int) ([]*domain.BacktestRun, error) {
	query := `
		SELECT ` + backtestRunColumns + `
		FROM backtest_runs
		ORDER BY created_at DESC, id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.pool.Query(ctx, query, limitArg(limit), max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list backtest runs: %w", err)
	}
	defer rows.Close()

	var result []*domain.BacktestRun
	for rows.Next() {
		r, err := scanBacktestRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backtest run: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backtest runs: %w", err)
	}
	return result, nil
}

func scanBacktestRun(row pgx.Row) (*domain.BacktestRun, error) {
	var r domain.BacktestRun
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Description,
		&r.StartDate,
		&r.EndDate,
		&r.Params,
		&r.TotalPnL,
		&r.MaxDrawdown,
		&r.WinRate,
		&r.Sharpe,
		&r.Summary,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
