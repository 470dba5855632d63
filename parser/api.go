package parser

import (
	"fmt"
	"io"

	"github.com/sergev/sbasic/diagnostics"
)

// ParseString tokenizes and parses source text.
func ParseString(src string) (*ParseTree, []diagnostics.Diagnostic) {
	return Parse(Tokenize(src))
}

// ParseReader consumes source from an io.Reader and parses it. The error is
// only non-nil when reading fails; syntax problems are diagnostics.
func ParseReader(r io.Reader) (*ParseTree, []diagnostics.Diagnostic, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read source: %w", err)
	}
	tree, diags := ParseString(string(data))
	return tree, diags, nil
}
