package dumpxml

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// charsetReader decodes non-UTF-8 document encodings declared in the XML
// prolog. Older dump archives declare ISO-8859-1; current ones are UTF-8 and
// pass through untouched.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("dumpxml: charset %q: %w", label, err)
	}
	if enc == unicode.UTF8 {
		return input, nil
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
