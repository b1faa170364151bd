package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"jsontable/internal/storage"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	switch {
	case isMemory(cfg.DSN):
		db.SetMaxOpenConns(1)
	case cfg.MaxConns > 0:
		db.SetMaxOpenConns(int(cfg.MaxConns))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")

	closeFn := func() { db.Close() }
	return &Repository{db: db}, closeFn, nil
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Placeholder implements storage.Repository.
func (r *Repository) Placeholder(int) string { return "?" }

// QueryInt64 implements storage.Repository.
func (r *Repository) QueryInt64(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: query: %w", err)
	}
	return n, nil
}

// InsertReturning implements storage.Repository using one prepared
// INSERT ... RETURNING statement inside a transaction.
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
	stmtSQL := storage.BuildInsert(table, columns, returning, r.Placeholder)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &storage.RowError{Index: 0, Err: fmt.Errorf("sqlite: begin tx: %w", err)}
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return nil, &storage.RowError{Index: 0, Err: fmt.Errorf("sqlite: prepare insert: %w", err)}
	}
	defer stmt.Close()

	keys := make([]any, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return nil, &storage.RowError{Index: i, Err: fmt.Errorf("sqlite: row length %d != columns length %d", len(row), len(columns))}
		}
		var key any
		if err := stmt.QueryRowContext(ctx, row...).Scan(&key); err != nil {
			_ = tx.Rollback()
			return nil, &storage.RowError{Index: i, Err: fmt.Errorf("sqlite: insert: %w", err)}
		}
		keys = append(keys, key)
	}

	if err := tx.Commit(); err != nil {
		return nil, &storage.RowError{Index: len(rows) - 1, Err: fmt.Errorf("sqlite: commit: %w", err)}
	}
	return keys, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}
