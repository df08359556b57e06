// Package sqlite implements a SQLite-backed storage.Repository for local
// runs and tests. SQLite has no bulk-load primitive like Postgres COPY and
// no array type, so batches become multi-row INSERTs inside one transaction
// and list columns are stored as JSON text.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"discogsload/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a SQLite database from the DSN, e.g.
// "file:discogs.db?cache=shared" or a plain file path.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Repository{db: db}, nil
}

// CopyFrom inserts the batch with a prepared single-row INSERT inside one
// transaction. The transaction is the unit of work: either the whole batch
// commits or none of it does.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for _, row := range rows {
		args, err := encodeRow(row)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert into %s: %w", table, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

func (r *Repository) Close() { r.db.Close() }

// encodeRow maps accumulator values onto driver-friendly ones. []string
// list columns become JSON arrays so an empty list stays distinguishable
// from null.
func encodeRow(row []any) ([]any, error) {
	out := make([]any, len(row))
	for i, v := range row {
		items, ok := v.([]string)
		if !ok {
			out[i] = v
			continue
		}
		b, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("sqlite: encode array column: %w", err)
		}
		out[i] = string(b)
	}
	return out, nil
}
