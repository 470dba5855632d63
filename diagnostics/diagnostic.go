// Package diagnostics defines the error codes and source ranges shared by the
// lexer, parser, binder and execution engine.
package diagnostics

import (
	"fmt"
	"strings"
)

// ErrorCode enumerates every diagnostic the toolchain can report.
type ErrorCode int

const (
	// Lexical
	UnrecognizedCharacter ErrorCode = iota
	UnterminatedStringLiteral

	// Syntactic
	UnexpectedTokenExpectingEOL
	UnexpectedTokenExpectingToken
	UnexpectedTokenExpectingExpression
	UnexpectedEOLExpectingToken
	UnexpectedEOLExpectingExpression
	UnexpectedEOLExpectingIdentifier
	UnexpectedTokenExpectingIdentifier
	UnexpectedCommandExpectingCommand
	UnexpectedEOFExpectingCommand
	CannotDefineSubInsideBlock

	// Semantic
	TwoSubModulesWithTheSameName
	TwoLabelsWithTheSameName
	GoToUndefinedLabel
	ValueIsNotANumber
	UnexpectedArgumentsCount
	UnexpectedVoidExpectingValue
	LibraryMemberNotFound
	UnsupportedArrayBaseExpression
	UnsupportedCallBaseExpression
	UnsupportedDotBaseExpression
	PropertyHasNoSetter
	ValueIsNotAssignable
	UnassignedExpressionStatement
	UnsupportedEventHandler

	// Runtime
	CannotUseOperatorWithAString
	CannotUseOperatorWithAnArray
	CannotUseAnArrayAsAnIndexToAnotherArray
	CannotDivideByZero
	PoppingAnEmptyStack

	errorCodeCount
)

var codeNames = [...]string{
	UnrecognizedCharacter:                   "UnrecognizedCharacter",
	UnterminatedStringLiteral:               "UnterminatedStringLiteral",
	UnexpectedTokenExpectingEOL:             "UnexpectedToken_ExpectingEOL",
	UnexpectedTokenExpectingToken:           "UnexpectedToken_ExpectingToken",
	UnexpectedTokenExpectingExpression:      "UnexpectedToken_ExpectingExpression",
	UnexpectedEOLExpectingToken:             "UnexpectedEOL_ExpectingToken",
	UnexpectedEOLExpectingExpression:        "UnexpectedEOL_ExpectingExpression",
	UnexpectedEOLExpectingIdentifier:        "UnexpectedEOL_ExpectingIdentifier",
	UnexpectedTokenExpectingIdentifier:      "UnexpectedToken_ExpectingIdentifier",
	UnexpectedCommandExpectingCommand:       "UnexpectedCommand_ExpectingCommand",
	UnexpectedEOFExpectingCommand:           "UnexpectedEOF_ExpectingCommand",
	CannotDefineSubInsideBlock:              "CannotDefineSubInsideBlock",
	TwoSubModulesWithTheSameName:            "TwoSubModulesWithTheSameName",
	TwoLabelsWithTheSameName:                "TwoLabelsWithTheSameName",
	GoToUndefinedLabel:                      "GoToUndefinedLabel",
	ValueIsNotANumber:                       "ValueIsNotANumber",
	UnexpectedArgumentsCount:                "UnexpectedArgumentsCount",
	UnexpectedVoidExpectingValue:            "UnexpectedVoid_ExpectingValue",
	LibraryMemberNotFound:                   "LibraryMemberNotFound",
	UnsupportedArrayBaseExpression:          "UnsupportedArrayBaseExpression",
	UnsupportedCallBaseExpression:           "UnsupportedCallBaseExpression",
	UnsupportedDotBaseExpression:            "UnsupportedDotBaseExpression",
	PropertyHasNoSetter:                     "PropertyHasNoSetter",
	ValueIsNotAssignable:                    "ValueIsNotAssignable",
	UnassignedExpressionStatement:           "UnassignedExpressionStatement",
	UnsupportedEventHandler:                 "UnsupportedEventHandler",
	CannotUseOperatorWithAString:            "CannotUseOperatorWithAString",
	CannotUseOperatorWithAnArray:            "CannotUseOperatorWithAnArray",
	CannotUseAnArrayAsAnIndexToAnotherArray: "CannotUseAnArrayAsAnIndexToAnotherArray",
	CannotDivideByZero:                      "CannotDivideByZero",
	PoppingAnEmptyStack:                     "PoppingAnEmptyStack",
}

// messages holds the default English templates. Each %s consumes one argument
// in order; a localizer may replace them by code.
var messages = [...]string{
	UnrecognizedCharacter:                   "I don't understand this character '%s'.",
	UnterminatedStringLiteral:               "This string is missing its right double quotes.",
	UnexpectedTokenExpectingEOL:             "Unexpected '%s' here. I was expecting a new line after the previous command.",
	UnexpectedTokenExpectingToken:           "Unexpected '%s' here. I was expecting a token of type '%s' instead.",
	UnexpectedTokenExpectingExpression:      "Unexpected '%s' here. I was expecting an expression instead.",
	UnexpectedEOLExpectingToken:             "Unexpected end of line here. I was expecting a token of type '%s' instead.",
	UnexpectedEOLExpectingExpression:        "Unexpected end of line here. I was expecting an expression instead.",
	UnexpectedEOLExpectingIdentifier:        "Unexpected end of line here. I was expecting an identifier instead.",
	UnexpectedTokenExpectingIdentifier:      "Unexpected '%s' here. I was expecting an identifier instead.",
	UnexpectedCommandExpectingCommand:       "Unexpected command of type '%s'. I was expecting a command of type '%s'.",
	UnexpectedEOFExpectingCommand:           "Unexpected end of file. I was expecting a command of type '%s'.",
	CannotDefineSubInsideBlock:              "You cannot define a sub-module inside another block.",
	TwoSubModulesWithTheSameName:            "Another sub-module with the same name '%s' is already defined.",
	TwoLabelsWithTheSameName:                "Another label with the same name '%s' is already defined.",
	GoToUndefinedLabel:                      "No label with the name '%s' exists in the same module.",
	ValueIsNotANumber:                       "The value '%s' is not a valid number.",
	UnexpectedArgumentsCount:                "I was expecting %s arguments, but found %s instead.",
	UnexpectedVoidExpectingValue:            "This expression must return a value to be used here.",
	LibraryMemberNotFound:                   "The library '%s' has no member named '%s'.",
	UnsupportedArrayBaseExpression:          "This expression is not a valid array.",
	UnsupportedCallBaseExpression:           "This expression is not a valid method or sub-module to call.",
	UnsupportedDotBaseExpression:            "You can only use dot access with a library.",
	PropertyHasNoSetter:                     "This property cannot be set. You can only get its value.",
	ValueIsNotAssignable:                    "You cannot assign to this expression.",
	UnassignedExpressionStatement:           "This value is not assigned to anything. Did you mean to assign it to a variable?",
	UnsupportedEventHandler:                 "Only sub-modules can be assigned to events.",
	CannotUseOperatorWithAString:            "You cannot use the operator '%s' with a string value.",
	CannotUseOperatorWithAnArray:            "You cannot use the operator '%s' with an array value.",
	CannotUseAnArrayAsAnIndexToAnotherArray: "You cannot use an array as an index to access another array.",
	CannotDivideByZero:                      "You cannot divide by zero.",
	PoppingAnEmptyStack:                     "This stack has no elements to be popped.",
}

func (c ErrorCode) String() string {
	if c < 0 || c >= errorCodeCount {
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
	return codeNames[c]
}

// Template returns the default message template for the code.
func (c ErrorCode) Template() string {
	if c < 0 || c >= errorCodeCount {
		return c.String()
	}
	return messages[c]
}

// Diagnostic is a single user-facing problem with its location.
type Diagnostic struct {
	Code  ErrorCode
	Range Range
	Args  []string
	Hint  string // optional suggestion, e.g. a close library member name
}

// New constructs a diagnostic.
func New(code ErrorCode, rng Range, args ...string) Diagnostic {
	return Diagnostic{Code: code, Range: rng, Args: args}
}

// Message formats the default English message for the diagnostic.
func (d Diagnostic) Message() string {
	tmpl := d.Code.Template()
	want := strings.Count(tmpl, "%s")
	args := make([]interface{}, want)
	for i := range args {
		if i < len(d.Args) {
			args[i] = d.Args[i]
		} else {
			args[i] = ""
		}
	}
	msg := fmt.Sprintf(tmpl, args...)
	if d.Hint != "" {
		msg += " Did you mean '" + d.Hint + "'?"
	}
	return msg
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Range.Start, d.Code, d.Message())
}

// Bag is an append-only list of diagnostics in emission order.
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Report constructs and appends a diagnostic.
func (b *Bag) Report(code ErrorCode, rng Range, args ...string) {
	b.items = append(b.items, New(code, rng, args...))
}

// Len returns the number of diagnostics collected.
func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns the collected diagnostics.
func (b *Bag) Items() []Diagnostic {
	return b.items
}
