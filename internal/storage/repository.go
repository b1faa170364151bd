// Package storage contains the storage-agnostic contract used by foreign-key
// checks and the loader, plus a small factory so callers can obtain a
// backend by kind ("postgres", "sqlite") without importing it directly.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the relational collaborator. Implementations must be safe
// for concurrent use by independent analysis runs.
type Repository interface {
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string

	// QueryInt64 runs a query returning a single integer, such as COUNT(*).
	QueryInt64(ctx context.Context, query string, args ...any) (int64, error)

	// InsertReturning inserts rows into table inside one transaction and
	// returns the value of the returning column for each row. On failure
	// nothing is committed and the error is a *RowError.
	InsertReturning(ctx context.Context, table string, columns []string, rows [][]any, returning string) ([]any, error)

	// Exec executes a statement without results (typically DDL).
	Exec(ctx context.Context, sql string) error

	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind     string // "postgres" | "sqlite"
	DSN      string
	MaxConns int32 // pool size hint; zero keeps the backend default
}

// RowError reports which row of an InsertReturning batch failed.
type RowError struct {
	Index int // 0-based position in the rows slice
	Err   error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Index, e.Err) }
func (e *RowError) Unwrap() error { return e.Err }

// Factory constructs a Repository for a given Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind, replacing any previous
// factory for the same kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds in sorted order.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
