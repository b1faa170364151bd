// Package foreignkey checks composite values against a relational
// collaborator. Each check is one COUNT(*) query against the referenced
// resource.
package foreignkey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"jsontable/internal/storage"
)

// ErrQuery marks a failure to build or run a foreign key query.
var ErrQuery = errors.New("foreign key query")

// Separator joins the values of a composite key on both sides of a check.
const Separator = ", "

// Validator reports whether hash (the referenced field values joined by
// Separator) exists in resource.
type Validator interface {
	Validate(ctx context.Context, hash, resource string, fields []string) (bool, error)
}

// Postgres validates against a relational store through storage.Repository.
// The SQL is portable enough to also run on SQLite.
type Postgres struct {
	repo storage.Repository
}

// NewPostgres returns a Validator backed by repo.
func NewPostgres(repo storage.Repository) *Postgres {
	return &Postgres{repo: repo}
}

// Validate implements Validator.
func (p *Postgres) Validate(ctx context.Context, hash, resource string, fields []string) (bool, error) {
	query, err := BuildQuery(resource, fields, p.repo.Placeholder(1))
	if err != nil {
		return false, err
	}
	n, err := p.repo.QueryInt64(ctx, query, hash)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrQuery, resource, err)
	}
	return n > 0, nil
}

// BuildQuery renders
//
//	SELECT COUNT(*) FROM resource WHERE CAST(f1 AS TEXT) || ', ' || CAST(f2 AS TEXT) = $1
//
// Identifiers must be plain SQL names (optionally schema-qualified).
func BuildQuery(resource string, fields []string, placeholder string) (string, error) {
	if err := storage.CheckIdent(resource); err != nil {
		return "", fmt.Errorf("%w: resource: %v", ErrQuery, err)
	}
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: %s: no reference fields", ErrQuery, resource)
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		if err := storage.CheckIdent(f); err != nil {
			return "", fmt.Errorf("%w: %s: field: %v", ErrQuery, resource, err)
		}
		parts[i] = "CAST(" + f + " AS TEXT)"
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = %s",
		resource, strings.Join(parts, " || '"+Separator+"' || "), placeholder), nil
}

// Registry maps datapackage names onto validators.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Validator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: map[string]Validator{}}
}

// Register binds datapackage to v, replacing any previous binding.
func (r *Registry) Register(datapackage string, v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[datapackage] = v
}

// Lookup returns the validator for datapackage.
func (r *Registry) Lookup(datapackage string) (Validator, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.m[datapackage]
	return v, ok
}
