package compiler

import (
	"errors"
	"fmt"

	"github.com/sergev/sbasic/diagnostics"
)

// Error reports a program that did not compile.
type Error struct {
	Diagnostics []diagnostics.Diagnostic

	// Incomplete is set when every problem is a block left open at the end
	// of the source, i.e. more input could complete the program.
	Incomplete bool
}

func (e *Error) Error() string {
	if e == nil || len(e.Diagnostics) == 0 {
		return ""
	}
	msg := e.Diagnostics[0].String()
	if n := len(e.Diagnostics) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

func newError(diags []diagnostics.Diagnostic, misnested bool) error {
	if len(diags) == 0 {
		return nil
	}
	incomplete := !misnested
	for _, d := range diags {
		if d.Code != diagnostics.UnexpectedEOFExpectingCommand {
			incomplete = false
			break
		}
	}
	return &Error{
		Diagnostics: diags,
		Incomplete:  incomplete,
	}
}

// IsIncomplete reports whether the supplied error represents incomplete input.
func IsIncomplete(err error) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Incomplete
	}
	return false
}

// Diagnostics extracts the diagnostics carried by a compile error.
func Diagnostics(err error) []diagnostics.Diagnostic {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Diagnostics
	}
	return nil
}
