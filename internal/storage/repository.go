// Package storage contains the storage-agnostic contracts of the loader:
// the bulk-insert Repository interface, a backend registration factory, and
// the per-table batch accumulator.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var errUnknownTable = errors.New("storage: row for unconfigured table")

// Repository is the minimal bulk-load surface a backend must provide. One
// Repository is shared by every file pipeline in a run; implementations must
// be safe for concurrent CopyFrom calls.
type Repository interface {
	// CopyFrom inserts rows (aligned to columns order) into table as one
	// unit of work and returns the number of rows inserted.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	Close()
}

// Config selects and configures a backend. DSN and credentials are opaque
// here; each backend interprets its own connection string.
type Config struct {
	Kind   string // "postgres", "sqlite"
	DSN    string
	Schema string // optional schema/namespace prefix for table names
}

// Opener constructs a Repository for one backend kind.
type Opener func(ctx context.Context, cfg Config) (Repository, error)

var (
	openMu  sync.RWMutex
	openers = map[string]Opener{}
)

// Register installs (or replaces) the Opener for a backend kind. It is
// called from backend packages' init functions; importing storage/all pulls
// in every built-in backend.
func Register(kind string, fn Opener) {
	openMu.Lock()
	defer openMu.Unlock()
	openers[kind] = fn
}

// New opens a Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	openMu.RLock()
	fn, ok := openers[cfg.Kind]
	openMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind=%q", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// LoadError reports a rejected batch with enough context to locate it: the
// target table and the 1-based batch ordinal within the current file.
type LoadError struct {
	Table string
	Batch int64
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("storage: load batch #%d into %s: %v", e.Batch, e.Table, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
