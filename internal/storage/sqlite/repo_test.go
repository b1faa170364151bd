package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"jsontable/internal/schema"
	"jsontable/internal/storage"
)

func newRepo(tb testing.TB) *Repository {
	tb.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: ":memory:"})
	if err != nil {
		tb.Fatalf("open sqlite :memory:: %v", err)
	}
	tb.Cleanup(closeFn)
	return r
}

func mustExec(tb testing.TB, r *Repository, sqlStmt string) {
	tb.Helper()
	if err := r.Exec(context.Background(), sqlStmt); err != nil {
		tb.Fatalf("exec %q: %v", sqlStmt, err)
	}
}

func TestInsertReturningAndCount(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	mustExec(t, r, `CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, csv_row INTEGER)`)

	keys, err := r.InsertReturning(ctx, "people", []string{"name", "csv_row"},
		[][]any{{"ada", 1}, {"alan", 2}, {nil, 3}}, "id")
	if err != nil {
		t.Fatalf("InsertReturning: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("keys = %v, want 3", keys)
	}
	for i, k := range keys {
		if k != int64(i+1) {
			t.Errorf("key %d = %#v, want %d", i, k, i+1)
		}
	}

	n, err := r.QueryInt64(ctx, `SELECT COUNT(*) FROM people WHERE CAST(name AS TEXT) || ', ' || CAST(csv_row AS TEXT) = ?`, "alan, 2")
	if err != nil {
		t.Fatalf("QueryInt64: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

// TestInsertReturning_RollsBack checks a failing row aborts the whole batch
// and is reported by index.
func TestInsertReturning_RollsBack(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	mustExec(t, r, `CREATE TABLE items (id INTEGER PRIMARY KEY, code TEXT NOT NULL, csv_row INTEGER)`)

	_, err := r.InsertReturning(ctx, "items", []string{"code", "csv_row"},
		[][]any{{"a", 1}, {nil, 2}, {"c", 3}}, "id")
	var rowErr *storage.RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("err = %v, want *storage.RowError", err)
	}
	if rowErr.Index != 1 {
		t.Fatalf("RowError.Index = %d, want 1", rowErr.Index)
	}

	n, err := r.QueryInt64(ctx, `SELECT COUNT(*) FROM items`)
	if err != nil {
		t.Fatalf("QueryInt64: %v", err)
	}
	if n != 0 {
		t.Fatalf("rows after rollback = %d, want 0", n)
	}
}

func TestExec_Errors(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	if err := r.Exec(context.Background(), "   "); err != nil {
		t.Fatalf("blank statement: %v", err)
	}
	if err := r.Exec(context.Background(), "NOT SQL"); err == nil || !strings.Contains(err.Error(), "sqlite: exec") {
		t.Fatalf("err = %v, want sqlite exec error", err)
	}
}

// TestEnsureTable_FromSchema creates the loader table through the registered
// bootstrapper and inserts into it.
func TestEnsureTable_FromSchema(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	s, err := schema.Load(`{"fields":[
		{"name":"name","constraints":{"required":true}},
		{"name":"age","type":"integer"},
		{"name":"active","type":"boolean"}
	]}`)
	if err != nil {
		t.Fatalf("schema.Load: %v", err)
	}

	spec := storage.TableSpec{Table: "members", PrimaryKey: "id", Schema: s}
	if err := storage.EnsureTable(ctx, "sqlite", &wrappedRepo{Repository: r}, spec); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	// Idempotent.
	if err := storage.EnsureTable(ctx, "sqlite", &wrappedRepo{Repository: r}, spec); err != nil {
		t.Fatalf("EnsureTable again: %v", err)
	}

	keys, err := r.InsertReturning(ctx, "members", []string{"name", "age", "active", "csv_row"},
		[][]any{{"ada", int64(36), true, 1}}, "id")
	if err != nil {
		t.Fatalf("InsertReturning: %v", err)
	}
	if len(keys) != 1 || keys[0] != int64(1) {
		t.Fatalf("keys = %#v, want [1]", keys)
	}

	if n, err := r.QueryInt64(ctx, `SELECT active FROM members WHERE id = 1`); err != nil || n != 1 {
		t.Fatalf("active = %d, %v; want 1", n, err)
	}
}
