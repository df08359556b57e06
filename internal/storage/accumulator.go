package storage

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"discogsload/internal/metrics"
	"discogsload/internal/schema"
)

// DefaultBatchSize is the number of rows per bulk insert when the config
// does not say otherwise.
const DefaultBatchSize = 10000

// Accumulator collects completed rows into per-table buffers and hands each
// full buffer to the Repository as one bulk insert. One Accumulator belongs
// to exactly one file pipeline and is not safe for concurrent use; the
// Repository behind it may be shared.
//
// Flush ordering: a child table's flush first drains its parent's pending
// buffer, and FlushAll walks tables in declaration order (parents first), so
// parent rows are never loaded later than the child rows referencing them.
type Accumulator struct {
	repo      Repository
	job       string
	batchSize int
	order     []string
	buffers   map[string]*buffer
	start     time.Time
}

type buffer struct {
	table  schema.Table
	parent *buffer
	keyIdx []int
	rows   [][]any
	seen   map[uint64]struct{}

	batches  int64
	inserted int64
}

// TableStats summarizes one table's activity for the end-of-file report.
type TableStats struct {
	Table   string
	Rows    int64
	Batches int64
}

// NewAccumulator builds an Accumulator over the given target tables.
// batchSize <= 0 falls back to DefaultBatchSize. job labels log lines and
// metrics, typically with the input file name.
func NewAccumulator(repo Repository, job string, batchSize int, tables []schema.Table) *Accumulator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	a := &Accumulator{
		repo:      repo,
		job:       job,
		batchSize: batchSize,
		buffers:   make(map[string]*buffer, len(tables)),
		start:     time.Now(),
	}
	for _, t := range tables {
		b := &buffer{table: t, rows: make([][]any, 0, batchSize)}
		if len(t.Keys) > 0 {
			b.keyIdx = make([]int, 0, len(t.Keys))
			for _, k := range t.Keys {
				for i, c := range t.Columns {
					if c == k {
						b.keyIdx = append(b.keyIdx, i)
					}
				}
			}
			b.seen = make(map[uint64]struct{}, batchSize)
		}
		a.buffers[t.Name] = b
		a.order = append(a.order, t.Name)
	}
	for _, name := range a.order {
		b := a.buffers[name]
		if b.table.Parent != "" {
			b.parent = a.buffers[b.table.Parent]
		}
	}
	return a
}

// Append places one row into its table's buffer and flushes the buffer once
// it reaches the batch size. Rows repeating an already-buffered key are
// dropped; the dumps occasionally repeat records inside one window and the
// target tables keep primary keys as the backstop.
func (a *Accumulator) Append(ctx context.Context, table string, row []any) error {
	b, ok := a.buffers[table]
	if !ok {
		return &LoadError{Table: table, Batch: 0, Err: errUnknownTable}
	}
	if b.seen != nil {
		h := keyHash(row, b.keyIdx)
		if _, dup := b.seen[h]; dup {
			return nil
		}
		b.seen[h] = struct{}{}
	}
	b.rows = append(b.rows, row)
	if len(b.rows) >= a.batchSize {
		return a.flush(ctx, b)
	}
	return nil
}

// FlushAll drains every non-empty buffer, parents first. It is invoked once
// at clean end-of-stream; partial buffers of an aborted file are simply
// discarded with the Accumulator.
func (a *Accumulator) FlushAll(ctx context.Context) error {
	for _, name := range a.order {
		if err := a.flush(ctx, a.buffers[name]); err != nil {
			return err
		}
	}
	return nil
}

func (a *Accumulator) flush(ctx context.Context, b *buffer) error {
	if b.parent != nil && len(b.parent.rows) > 0 {
		if err := a.flush(ctx, b.parent); err != nil {
			return err
		}
	}
	if len(b.rows) == 0 {
		return nil
	}

	flushStart := time.Now()
	n, err := a.repo.CopyFrom(ctx, b.table.Name, b.table.Columns, b.rows)
	if err != nil {
		log.Printf("loader: %s: batch #%d into %s failed rows=%d err=%v",
			a.job, b.batches+1, b.table.Name, len(b.rows), err)
		return &LoadError{Table: b.table.Name, Batch: b.batches + 1, Err: err}
	}

	b.batches++
	b.inserted += n
	rps := float64(0)
	if d := time.Since(flushStart); d > 0 {
		rps = float64(n) / d.Seconds()
	}
	log.Printf("loader: %s: table=%s batch #%d rps=%.0f inserted=%d total_inserted=%d elapsed=%s",
		a.job, b.table.Name, b.batches, rps, n, b.inserted,
		time.Since(a.start).Truncate(time.Millisecond))
	metrics.RecordBatches(a.job, 1)
	metrics.RecordRow(a.job, "inserted", n)

	b.rows = b.rows[:0]
	if b.seen != nil {
		b.seen = make(map[uint64]struct{}, a.batchSize)
	}
	return nil
}

// Stats returns per-table totals in declaration order.
func (a *Accumulator) Stats() []TableStats {
	out := make([]TableStats, 0, len(a.order))
	for _, name := range a.order {
		b := a.buffers[name]
		out = append(out, TableStats{Table: name, Rows: b.inserted, Batches: b.batches})
	}
	return out
}

// keyHash hashes the key columns of a row into the dedup key. Value kinds
// are limited to what the builder produces: nil, string, int64, []string.
func keyHash(row []any, keyIdx []int) uint64 {
	buf := make([]byte, 0, 64)
	for _, i := range keyIdx {
		switch v := row[i].(type) {
		case nil:
			buf = append(buf, 0xFF)
		case string:
			buf = append(buf, v...)
		case int64:
			buf = strconv.AppendInt(buf, v, 10)
		case []string:
			for _, s := range v {
				buf = append(buf, s...)
				buf = append(buf, 0x1F)
			}
		}
		buf = append(buf, 0x00)
	}
	return xxh3.Hash(buf)
}
