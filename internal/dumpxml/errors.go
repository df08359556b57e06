package dumpxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sentinel errors classifying fatal parse outcomes for one file. Both abort
// the file; batches flushed earlier in the same file stay committed.
var (
	// ErrTruncatedInput marks a stream that ended while an entity was still
	// being built.
	ErrTruncatedInput = errors.New("dumpxml: truncated input")

	// ErrMalformedInput marks structurally invalid markup (unbalanced or
	// unexpected nesting).
	ErrMalformedInput = errors.New("dumpxml: malformed input")
)

// FieldParseError reports a scalar whose text could not be converted to its
// numeric target type. It is only returned in strict mode; the default
// policy nulls the column and keeps going.
type FieldParseError struct {
	Element string
	Column  string
	Text    string
	Err     error
}

func (e *FieldParseError) Error() string {
	return fmt.Sprintf("dumpxml: field %s (column %s): parse %q: %v", e.Element, e.Column, e.Text, e.Err)
}

func (e *FieldParseError) Unwrap() error { return e.Err }

// classifyTokenErr maps a tokenizer error onto the package's error taxonomy.
// encoding/xml has no sentinel for truncation, so the message is matched the
// same way the rest of the codebase historically has.
func classifyTokenErr(err error, midEntity bool) error {
	if err == nil {
		return nil
	}
	if err == io.EOF {
		if midEntity {
			return ErrTruncatedInput
		}
		return nil
	}
	var syn *xml.SyntaxError
	if errors.As(err, &syn) && strings.Contains(syn.Msg, "unexpected EOF") {
		return fmt.Errorf("%w: %v", ErrTruncatedInput, err)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrTruncatedInput, err)
	}
	if errors.As(err, &syn) {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return err
}
