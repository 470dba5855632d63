package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestParseReader(t *testing.T) {
	tree, diags, err := ParseReader(strings.NewReader("x = 1\nTextWindow.WriteLine(x)\n"))
	if err != nil {
		t.Fatalf("ParseReader returned error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(tree.Main) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(tree.Main))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestParseReaderPropagatesReadErrors(t *testing.T) {
	_, _, err := ParseReader(failingReader{})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestParseStringReportsDiagnosticsWithRanges(t *testing.T) {
	_, diags := ParseString("x = 1\ny = )")
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %v", diags)
	}
	d := diags[0]
	if d.Range.Start.Line != 2 || d.Range.Start.Column != 5 {
		t.Fatalf("expected diagnostic at 2:5, got %s", d.Range.Start)
	}
	if !strings.Contains(d.Message(), "')'") {
		t.Fatalf("expected message to quote the token, got %q", d.Message())
	}
}
