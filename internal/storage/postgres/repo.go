// Package postgres implements storage.Repository on a pgx v5 connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"jsontable/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN      string // connection string for pgxpool
	MaxConns int32  // zero keeps the pgxpool default
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// poolConfig parses the DSN and applies the overrides from cfg.
func poolConfig(cfg Config) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	return pcfg, nil
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pcfg, err := poolConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool}, closeFn, nil
}

// Placeholder implements storage.Repository.
func (r *Repository) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

// QueryInt64 implements storage.Repository.
func (r *Repository) QueryInt64(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, describe(err)
	}
	return n, nil
}

// InsertReturning implements storage.Repository. Each row is a separate
// INSERT ... RETURNING inside a single transaction.
func (r *Repository) InsertReturning(
	ctx context.Context,
	table string,
	columns []string,
	rows [][]any,
	returning string,
) ([]any, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	stmt := storage.BuildInsert(table, columns, returning, r.Placeholder)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, &storage.RowError{Index: 0, Err: fmt.Errorf("begin: %w", err)}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	keys := make([]any, 0, len(rows))
	for i, row := range rows {
		var key any
		if err := tx.QueryRow(ctx, stmt, row...).Scan(&key); err != nil {
			return nil, &storage.RowError{Index: i, Err: describe(err)}
		}
		keys = append(keys, key)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, &storage.RowError{Index: len(rows) - 1, Err: fmt.Errorf("commit: %w", describe(err))}
	}
	return keys, nil
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return describe(err)
}

// describe adds the server message and SQLSTATE to pg errors, keeping the
// original error in the chain.
func describe(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Detail != "" {
			return fmt.Errorf("%s: %s (%s): %w", pgErr.Message, pgErr.Detail, pgErr.SQLState(), err)
		}
		return fmt.Errorf("%s (%s): %w", pgErr.Message, pgErr.SQLState(), err)
	}
	return err
}
