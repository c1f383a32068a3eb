// Package storage defines the backend-agnostic write contract for a rebuilt
// warehouse schema, plus the table/view descriptors backends turn into DDL.
// Concrete backends live in subpackages and register themselves by kind.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Config selects and parameterizes a storage backend.
//
// Edge cases:
//   - Kind must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is
//     backend-specific.
//   - Schema qualifies table names on backends that support schemas
//     (postgres, sqlserver); sqlite ignores it.
type Config struct {
	Kind   string
	DSN    string
	Schema string
}

// ErrConstraint marks database errors caused by a declared constraint
// (primary key, uniqueness, foreign key). Backends map their driver's error
// codes onto it so callers can errors.Is without importing driver packages.
var ErrConstraint = errors.New("constraint violation")

// Repository is the write contract one full rebuild needs. The build is the
// sole writer: it recreates the schema, loads it in dependency order, then
// installs the views. There is no incremental path.
//
// IMPORTANT: this interface is intentionally minimal. Each backend implements
// the semantics in its own idiomatic way (postgres qualified names, sqlite
// PRAGMA foreign_keys, sqlserver IDENTITY-free keys).
type Repository interface {
	// Close releases backend resources. Treat as "call once" at shutdown.
	Close()

	// RecreateSchema drops the given tables (in reverse order, children
	// first) and creates them fresh with all declared keys, uniqueness
	// constraints and cascading foreign keys.
	RecreateSchema(ctx context.Context, tables []Table) error

	// InsertRows bulk-inserts aligned value rows into one table and returns
	// the number written. No conflict handling: the schema is freshly
	// created and duplicates are upstream bugs, so a constraint trip must
	// surface as an error wrapping ErrConstraint.
	InsertRows(ctx context.Context, table string, columns []Column, rows [][]any) (int64, error)

	// CreateViews installs the read-only views, dropping same-named ones
	// first. Bodies arrive already rendered for the backend's dialect.
	CreateViews(ctx context.Context, views []View) error
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// When to use:
//   - Call Register from an init() function in a backend package.
//
// Panics:
//   - If kind is empty, f is nil, or kind is already registered. Duplicate
//     registration panics to fail fast on ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
//
// Errors:
//   - If cfg.Kind is empty or unregistered (the error lists registered
//     kinds).
//   - Whatever error the factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
