package diagnostics

import "fmt"

// Position tracks a source location within a program.
type Position struct {
	Offset int // zero-based byte offset
	Line   int // one-based line number
	Column int // one-based column number (rune count)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p comes strictly before other.
func (p Position) Before(other Position) bool {
	return p.Offset < other.Offset
}

// Range is a half-open span of source text.
type Range struct {
	Start Position
	End   Position
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// Join returns the smallest range covering both r and other.
func (r Range) Join(other Range) Range {
	out := r
	if other.Start.Before(out.Start) {
		out.Start = other.Start
	}
	if out.End.Before(other.End) {
		out.End = other.End
	}
	return out
}

// ContainsLine reports whether the line falls inside the range.
func (r Range) ContainsLine(line int) bool {
	return line >= r.Start.Line && line <= r.End.Line
}
