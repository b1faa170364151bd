package storage

import (
	"context"
	"fmt"
	"sync"

	"jsontable/internal/schema"
)

// TableSpec describes the destination table the loader writes to.
type TableSpec struct {
	Table      string
	PrimaryKey string // column returned by inserts; generated when not a schema field
	Schema     *schema.Schema
}

// DDLBootstrapper creates the destination table for a TableSpec using the
// backend's dialect. Backends register one per kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, spec TableSpec) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable creates the table described by spec if it does not exist.
func EnsureTable(ctx context.Context, kind string, repo Repository, spec TableSpec) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, spec)
}
