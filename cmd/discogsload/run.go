// Per-file pipeline wiring. This file keeps the CLI layer thin: it depends
// only on storage-agnostic interfaces and never imports database drivers or
// backend-specific packages directly.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"discogsload/internal/config"
	"discogsload/internal/dumpsource"
	"discogsload/internal/dumpxml"
	"discogsload/internal/metrics"
	"discogsload/internal/schema"
	"discogsload/internal/storage"
)

// Function variables used to introduce test seams. In production these point
// to real implementations; tests can override them.
var (
	newRepositoryFn = storage.New

	openSourceFn = func(ctx context.Context, path string) (io.ReadCloser, error) {
		return dumpsource.NewLocal(path).Open(ctx)
	}
)

// runFiles processes every dump file against one shared repository. Files
// run through a bounded worker group (sequential by default); a fatal error
// in one file never aborts the others, but any failure makes the run exit
// non-zero after all files were attempted.
func runFiles(ctx context.Context, cfg config.Config, kind string, files []string) error {
	repo, err := newRepositoryFn(ctx, storage.Config{
		Kind:   cfg.DB.Kind,
		DSN:    cfg.DB.DSN,
		Schema: cfg.DB.Schema,
	})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer repo.Close()

	workers := cfg.Runtime.FileWorkers
	if workers <= 0 {
		workers = 1
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed []string
	)
	g.SetLimit(workers)

	for _, path := range files {
		path := path
		g.Go(func() error {
			start := time.Now()
			err := runFile(ctx, cfg, repo, kind, path)
			metrics.RecordFile(filepath.Base(path), err, time.Since(start))
			if err != nil {
				log.Printf("%s: fatal: %v", path, err)
				mu.Lock()
				failed = append(failed, filepath.Base(path))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed: %s", len(failed), len(files), strings.Join(failed, ", "))
	}
	return nil
}

// runFile drains one dump file through a fresh parser and accumulator.
// Batches flushed before a fatal error stay committed; the partial buffers
// of an aborted file are discarded with the accumulator.
func runFile(ctx context.Context, cfg config.Config, repo storage.Repository, kind, path string) error {
	job := filepath.Base(path)

	sc, err := resolveSchema(ctx, kind, path)
	if err != nil {
		return err
	}
	log.Printf("%s: parsing and inserting as kind=%s", job, sc.Name)

	src, err := openSourceFn(ctx, path)
	if err != nil {
		return err
	}
	defer src.Close()

	acc := storage.NewAccumulator(repo, job, cfg.Load.BatchSize, sc.Tables())
	opts := dumpxml.Options{StrictNumbers: cfg.Parse.StrictNumbers}

	entities, err := dumpxml.ParseStream(ctx, src, sc, opts, func(table string, row []any) error {
		return acc.Append(ctx, table, row)
	})
	if err != nil {
		return err
	}
	if err := acc.FlushAll(ctx); err != nil {
		return err
	}

	metrics.RecordRow(job, "entities", entities)
	for _, st := range acc.Stats() {
		log.Printf("%s: table=%s rows=%d batches=%d", job, st.Table, st.Rows, st.Batches)
	}
	log.Printf("%s: done entities=%d", job, entities)
	return nil
}

// resolveSchema picks the entity schema for a file: an explicit -kind wins;
// otherwise the document root is sniffed from a fresh reader, the same way
// the dumps have always been dispatched.
func resolveSchema(ctx context.Context, kind, path string) (*schema.Entity, error) {
	if kind != "" {
		sc, ok := schema.ByKind(kind)
		if !ok {
			return nil, fmt.Errorf("unknown kind %q (expected release, label, artist, or master)", kind)
		}
		return sc, nil
	}

	src, err := openSourceFn(ctx, path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	root, err := dumpxml.SniffRoot(src)
	if err != nil {
		return nil, err
	}
	sc, ok := schema.ByRoot(root)
	if !ok {
		return nil, fmt.Errorf("unknown dump root element %q", root)
	}
	return sc, nil
}
