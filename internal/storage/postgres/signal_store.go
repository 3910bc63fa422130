package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/domain"
	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

const signalColumns = `id, symbol, side, price_range_min, price_range_max, smart_trader_count,
	trader_addresses, signal_strength, created_at, executed, executed_at`

// Insert adds a new signal. Returns ErrDuplicateKey if ID exists.
func (s *SignalStore) Insert(ctx context.Context, sig *domain.Signal) error {
	if sig == nil || sig.ID == "" {
		return storage.ErrInvalidInput
	}

	addresses := sig.TraderAddresses
	if addresses == nil {
		addresses = []string{}
	}
	addrJSON, err := marshalJSONB(addresses)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO signals (` + signalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.pool.Exec(ctx, query,
		sig.ID,
		sig.Symbol,
		string(sig.Side),
		sig.PriceRangeMin,
		sig.PriceRangeMax,
		sig.SmartTraderCount,
		addrJSON,
		sig.SignalStrength,
		sig.CreatedAt,
		sig.Executed,
		sig.ExecutedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// GetByID retrieves a signal. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(ctx context.Context, id string) (*domain.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE id = $1`

	sig, err := scanSignal(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get signal by id: %w", err)
	}
	return sig, nil
}

// MarkExecuted flips executed false->true in a single conditional update.
// A signal that exists but is already executed yields domain.ErrSignalExecuted.
func (s *SignalStore) MarkExecuted(ctx context.Context, id string, at int64) (*domain.Signal, error) {
	query := `
		UPDATE signals SET executed = TRUE, executed_at = $2
		WHERE id = $1 AND NOT executed
		RETURNING ` + signalColumns

	sig, err := scanSignal(s.pool.QueryRow(ctx, query, id, at))
	if err == nil {
		return sig, nil
	}
	if !isNotFoundError(err) {
		return nil, fmt.Errorf("mark signal executed: %w", err)
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrSignalExecuted
}

// ListRecent retrieves the newest signals ordered by created_at DESC, then ID.
func (s *SignalStore) ListRecent(ctx context.Context, limit int) ([]*domain.Signal, error) {
	query := `
		SELECT ` + signalColumns + `
		FROM signals
		ORDER BY created_at DESC, id ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	var result []*domain.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		result = append(result, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return result, nil
}

func scanSignal(row pgx.Row) (*domain.Signal, error) {
	var sig domain.Signal
	var side string

	err := row.Scan(
		&sig.ID,
		&sig.Symbol,
		&side,
		&sig.PriceRangeMin,
		&sig.PriceRangeMax,
		&sig.SmartTraderCount,
		&sig.TraderAddresses,
		&sig.SignalStrength,
		&sig.CreatedAt,
		&sig.Executed,
		&sig.ExecutedAt,
	)
	if err != nil {
		return nil, err
	}

	sig.Side = domain.Side(side)
	return &sig, nil
}
