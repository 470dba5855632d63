// Package invariant provides contract assertions for the compiler and engine.
//
// A violation is a defect in sbasic itself, never a problem with the user's
// program: user problems are reported as diagnostics. All functions panic.
package invariant

import (
	"fmt"
	"runtime"
)

// Precondition checks an input contract at function entry.
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during execution.
//
//	prev := p.pos
//	p.parseCommand()
//	invariant.Invariant(p.pos > prev, "parser must advance")
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// Unreachable panics unconditionally. Use it as the default branch of a switch
// over a closed set of kinds.
func Unreachable(format string, args ...interface{}) {
	fail("UNREACHABLE", format, args...)
}

// Violation is the panic payload raised by a failed assertion.
type Violation struct {
	Kind    string
	Message string
	File    string
	Line    int
}

func (v Violation) Error() string {
	if v.File == "" {
		return fmt.Sprintf("%s VIOLATION: %s", v.Kind, v.Message)
	}
	return fmt.Sprintf("%s VIOLATION: %s\n  at %s:%d", v.Kind, v.Message, v.File, v.Line)
}

func fail(kind, format string, args ...interface{}) {
	v := Violation{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
	pc := make([]uintptr, 4)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])
	if frame, ok := frames.Next(); ok {
		v.File = frame.File
		v.Line = frame.Line
	}
	panic(v)
}
