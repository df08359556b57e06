// Package postgres implements the Postgres repository using pgx v5. Batches
// arrive pre-shaped from the accumulator and go straight into COPY, which is
// the fastest bulk path the server offers; list columns are passed as
// []string and encoded by pgx as text[].
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"discogsload/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool   *pgxpool.Pool
	schema string
}

// NewRepository connects a pgx pool from the DSN. The pool is safe for
// concurrent CopyFrom calls from multiple file pipelines.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool, schema: cfg.Schema}, nil
}

// CopyFrom bulk-inserts rows into table as a single COPY.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	n, err := r.pool.CopyFrom(ctx, r.ident(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("copy into %s: %s (%s)", table, pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

func (r *Repository) Close() { r.pool.Close() }

// ident builds the pgx identifier for a table, applying the configured
// schema prefix unless the name is already qualified.
func (r *Repository) ident(table string) pgx.Identifier {
	if !strings.Contains(table, ".") && r.schema != "" {
		return pgx.Identifier{r.schema, table}
	}
	return splitFQN(table)
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
