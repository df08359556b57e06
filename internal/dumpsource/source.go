// Package dumpsource implements the local filesystem source for compressed
// dump files. It yields the uncompressed byte stream without ever holding
// more than a buffer's worth of the file in memory.
package dumpsource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// readBufSize is the bufio window between the file and the gzip frame
// decoder. The decompressed stream is consumed token by token downstream, so
// this is the only file-side buffering in the pipeline.
const readBufSize = 1 << 20

// Local is a filesystem data source bound to one gzip-compressed dump file.
type Local struct{ path string }

// NewLocal returns a new Local source for the provided path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured file path.
func (l *Local) Path() string { return l.path }

// Open opens the file and returns a reader over its decompressed contents.
//
// Behavior:
//   - If the context is already canceled at the time of the call, Open
//     returns the context error without touching the filesystem.
//   - A missing file or an invalid gzip header is reported immediately;
//     errors.Is(err, os.ErrNotExist) still works through the wrapping.
//   - A corrupt or truncated compression frame surfaces later, as a read
//     error from the returned reader.
//
// Closing the returned ReadCloser closes both the gzip decoder and the
// underlying file.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	gz, err := gzip.NewReader(bufio.NewReaderSize(f, readBufSize))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: gzip: %w", l.path, err)
	}
	return &gzipReadCloser{gz: gz, f: f}, nil
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gzErr
}
