// Package dumpxml turns the tokenized markup stream of one dump file into
// typed entity rows. It consumes encoding/xml tokens one at a time and runs
// a schema-configured state machine over them, so memory use is bounded by
// the depth of a single entity no matter how large the file is.
package dumpxml

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"io"

	"discogsload/internal/schema"
)

const tokenBufSize = 64 << 10

// ParseStream reads XML from r and emits one entity at a time according to
// sc. It returns the number of completed entities.
//
// The loop is strictly pull-based: the next token is only consumed after the
// previous entity (if any) has been handed to emit. It returns nil on a
// clean end of stream, ErrTruncatedInput when the stream ends mid-entity,
// ErrMalformedInput on structurally invalid markup, the context error on
// cancellation, and whatever emit returned if it failed.
func ParseStream(ctx context.Context, r io.Reader, sc *schema.Entity, opts Options, emit EmitFunc) (int64, error) {
	dec := xml.NewDecoder(bufio.NewReaderSize(r, tokenBufSize))
	dec.CharsetReader = charsetReader

	m := newMachine(sc, opts, emit)
	var n int64
	for {
		tok, err := dec.Token()
		if err != nil {
			return n, classifyTokenErr(err, m.midEntity())
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := m.start(t); err != nil {
				return n, err
			}
		case xml.CharData:
			m.chars(t)
		case xml.EndElement:
			done, err := m.end(t)
			if err != nil {
				return n, err
			}
			if done {
				n++
				// One cancellation point per entity keeps the check off the
				// per-token path.
				if err := ctx.Err(); err != nil {
					return n, err
				}
			}
		}
	}
}

// SniffRoot reads just far enough into r to return the document root
// element's name. Dump files declare their entity kind through the root
// (releases, labels, artists, masters); callers open a fresh reader for the
// actual parse since the stream is forward-only.
func SniffRoot(r io.Reader) (string, error) {
	dec := xml.NewDecoder(bufio.NewReaderSize(r, tokenBufSize))
	dec.CharsetReader = charsetReader
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return "", fmt.Errorf("dumpxml: no root element: %w", ErrMalformedInput)
			}
			return "", classifyTokenErr(err, false)
		}
		if t, ok := tok.(xml.StartElement); ok {
			return t.Name.Local, nil
		}
	}
}
