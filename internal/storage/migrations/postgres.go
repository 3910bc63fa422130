package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/storage/postgres"
)

// postgresLockKey is the pg_advisory_xact_lock key held while one migration runs.
const postgresLockKey int64 = 0x736d617274636f70

const createPostgresVersionTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT   PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`

// RunPostgresMigrations applies the embedded migrations that schema_migrations
// does not list yet and returns the versions applied by this call.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) ([]string, error) {
	all, err := Postgres()
	if err != nil {
		return nil, err
	}
	return ApplyPostgres(ctx, pool, all)
}

// ApplyPostgres applies migrations in order. Each one runs in its own
// transaction together with its schema_migrations row, under an advisory lock,
// so a failed file leaves no trace and concurrent boots apply it once.
func ApplyPostgres(ctx context.Context, pool *postgres.Pool, migrations []Migration) ([]string, error) {
	if _, err := pool.Exec(ctx, createPostgresVersionTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	for _, m := range migrations {
		ok, err := applyPostgres(ctx, pool, m)
		if err != nil {
			return applied, err
		}
		if ok {
			applied = append(applied, m.Version)
		}
	}
	return applied, nil
}

func applyPostgres(ctx context.Context, pool *postgres.Pool, m Migration) (bool, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin migration %s: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", postgresLockKey); err != nil {
		return false, fmt.Errorf("lock migration %s: %w", m.Version, err)
	}

	var done bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", m.Version,
	).Scan(&done)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", m.Version, err)
	}
	if done {
		return false, nil
	}

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return false, fmt.Errorf("apply migration %s: %w", m.Version, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)",
		m.Version, time.Now().UnixMilli(),
	); err != nil {
		return false, fmt.Errorf("record migration %s: %w", m.Version, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit migration %s: %w", m.Version, err)
	}
	return true, nil
}
