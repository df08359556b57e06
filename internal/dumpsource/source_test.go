package dumpsource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func writeGzip(t *testing.T, dir, name string, payload []byte) string {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLocalRoundTrip(t *testing.T) {
	t.Parallel()

	payload := []byte("<releases><release id=\"1\"/></releases>")
	path := writeGzip(t, t.TempDir(), "releases.xml.gz", payload)

	src := NewLocal(path)
	if src.Path() != path {
		t.Errorf("Path() = %q, want %q", src.Path(), path)
	}
	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("decompressed = %q, want %q", got, payload)
	}
}

func TestLocalMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewLocal(filepath.Join(t.TempDir(), "nope.xml.gz")).Open(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist through the wrapping", err)
	}
}

func TestLocalBadHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plain.xml.gz")
	if err := os.WriteFile(path, []byte("<releases/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLocal(path).Open(context.Background()); err == nil {
		t.Fatal("Open must reject a file without a gzip header")
	}
}

// A frame cut off mid-stream opens fine but fails on read; the parser above
// turns that into a truncation for the file.
func TestLocalTruncatedFrame(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	full := writeGzip(t, dir, "full.gz", bytes.Repeat([]byte("discogs "), 4096))
	raw, err := os.ReadFile(full)
	if err != nil {
		t.Fatal(err)
	}
	cut := filepath.Join(dir, "cut.gz")
	if err := os.WriteFile(cut, raw[:len(raw)/2], 0o644); err != nil {
		t.Fatal(err)
	}

	rc, err := NewLocal(cut).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if _, err := io.ReadAll(rc); err == nil {
		t.Fatal("reading a truncated frame must fail")
	}
}

func TestLocalCanceledContext(t *testing.T) {
	t.Parallel()

	path := writeGzip(t, t.TempDir(), "x.gz", []byte("x"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal(path).Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
