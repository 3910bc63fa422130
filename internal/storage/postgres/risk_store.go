package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// RiskConfigStore implements storage.RiskConfigStore using PostgreSQL.
type RiskConfigStore struct {
	pool *Pool
}

// NewRiskConfigStore creates a new RiskConfigStore.
func NewRiskConfigStore(pool *Pool) *RiskConfigStore {
	return &RiskConfigStore{pool: pool}
}

const riskConfigColumns = `id, max_drawdown_pct, max_leverage_per_symbol,
	max_position_size_per_symbol, created_at, updated_at`

// GetOrCreate returns the latest config, inserting def if the table is empty.
// The insert and the read run in one transaction holding a table lock so
// concurrent first reads create a single row.
func (s *RiskConfigStore) GetOrCreate(ctx context.Context, def domain.RiskConfig) (*domain.RiskConfig, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `LOCK TABLE risk_config IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("lock risk config: %w", err)
	}

	query := `SELECT ` + riskConfigColumns + ` FROM risk_config ORDER BY id DESC LIMIT 1`
	c, err := scanRiskConfig(tx.QueryRow(ctx, query))
	if err != nil && !isNotFoundError(err) {
		return nil, fmt.Errorf("get risk config: %w", err)
	}

	if c == nil {
		now := time.Now().UnixMilli()
		insert := `
			INSERT INTO risk_config (
				max_drawdown_pct, max_leverage_per_symbol, max_position_size_per_symbol,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $4)
			RETURNING ` + riskConfigColumns
		c, err = scanRiskConfig(tx.QueryRow(ctx, insert,
			def.MaxDrawdownPct, def.MaxLeveragePerSymbol, def.MaxPositionSizePerSymbol, now))
		if err != nil {
			return nil, fmt.Errorf("insert risk config: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return c, nil
}

// Update overwrites the limits of an existing config. Returns ErrNotFound if not exists.
func (s *RiskConfigStore) Update(ctx context.Context, c *domain.RiskConfig) error {
	if c == nil {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE risk_config
		SET max_drawdown_pct = $2, max_leverage_per_symbol = $3,
			max_position_size_per_symbol = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at
	`
	err := s.pool.QueryRow(ctx, query,
		c.ID,
		c.MaxDrawdownPct,
		c.MaxLeveragePerSymbol,
		c.MaxPositionSizePerSymbol,
		time.Now().UnixMilli(),
	).Scan(&c.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("update risk config: %w", err)
	}
	return nil
}

func scanRiskConfig(row pgx.Row) (*domain.RiskConfig, error) {
	var c domain.RiskConfig
	err := row.Scan(
		&c.ID,
		&c.MaxDrawdownPct,
		&c.MaxLeveragePerSymbol,
		&c.MaxPositionSizePerSymbol,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// RiskEventStore implements storage.RiskEventStore using PostgreSQL.
type RiskEventStore struct {
	pool *Pool
}

// NewRiskEventStore creates a new RiskEventStore.
func NewRiskEventStore(pool *Pool) *RiskEventStore {
	return &RiskEventStore{pool: pool}
}

// Insert appends a new event. Returns ErrDuplicateKey if ID exists.
func (s *RiskEventStore) Insert(ctx context.Context, e *domain.RiskEvent) error {
	if e == nil || e.ID == "" || e.EventType == "" {
		return storage.ErrInvalidInput
	}

	details := e.Details
	if details == nil {
		details = map[string]float64{}
	}
	detailsJSON, err := marshalJSONB(details)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO risk_events (id, event_type, details, created_at)
		VALUES ($1, $2, $3, $4)
	`, e.ID, e.EventType, detailsJSON, e.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert risk event: %w", err)
	}
	return nil
}

// Latest retrieves the newest event. Returns ErrNotFound if none.
func (s *RiskEventStore) Latest(ctx context.Context) (*domain.RiskEvent, error) {
	events, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, storage.ErrNotFound
	}
	return events[0], nil
}

// List retrieves events ordered by created_at DESC, newest insert first on ties.
func (s *RiskEventStore) List(ctx context.Context, limit int) ([]*domain.RiskEvent, error) {
	query := `
		SELECT id, event_type, details, created_at
		FROM risk_events
		ORDER BY created_at DESC, seq DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list risk events: %w", err)
	}
	defer rows.Close()

	var result []*domain.RiskEvent
	for rows.Next() {
		var e domain.RiskEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan risk event: %w", err)
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate risk events: %w", err)
	}
	return result, nil
}

var (
	_ storage.RiskConfigStore = (*RiskConfigStore)(nil)
	_ storage.RiskEventStore  = (*RiskEventStore)(nil)
)
