// Package binder resolves a parse tree against the runtime libraries and the
// declared sub-modules, producing bound modules ready for lowering.
package binder

import (
	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/lang"
)

// Modules maps a module name to its bound statements. The main module is
// keyed by lang.MainModule.
type Modules map[string][]Statement

// HasErrors reports whether any statement in any module has errors.
func (m Modules) HasErrors() bool {
	for _, stmts := range m {
		if anyStatementErrors(stmts) {
			return true
		}
	}
	return false
}

// node carries the fields shared by all bound nodes. hasErrors is fixed at
// construction: the node's own error OR any child's.
type node struct {
	rng       diagnostics.Range
	hasErrors bool
}

func (n node) Range() diagnostics.Range { return n.rng }
func (n node) HasErrors() bool          { return n.hasErrors }

func newNode(rng diagnostics.Range, local bool, children ...Expr) node {
	return node{rng: rng, hasErrors: local || anyErrors(children)}
}

func anyErrors(exprs []Expr) bool {
	for _, e := range exprs {
		if e != nil && e.HasErrors() {
			return true
		}
	}
	return false
}

func anyStatementErrors(stmts []Statement) bool {
	for _, s := range stmts {
		if s.HasErrors() {
			return true
		}
	}
	return false
}

// ExprKind discriminates bound expressions.
type ExprKind int

const (
	ExprVariable ExprKind = iota
	ExprLibraryType
	ExprSubModule
	ExprLibraryProperty
	ExprLibraryMethod
	ExprLibraryEvent
	ExprLibraryMethodInvocation
	ExprSubModuleInvocation
	ExprArrayAccess
	ExprParenthesis
	ExprNumberLiteral
	ExprStringLiteral
	ExprNegation
	ExprBinary
)

// Expr is a bound expression.
type Expr interface {
	Kind() ExprKind
	Range() diagnostics.Range
	HasErrors() bool
	boundExpr()
}

// Variable reads a variable of the current module.
type Variable struct {
	node
	Name string
}

// LibraryType names a library, e.g. the TextWindow in TextWindow.Title.
type LibraryType struct {
	node
	Library lang.LibraryID
}

// SubModule names a declared sub-module without calling it.
type SubModule struct {
	node
	Name string
}

// LibraryProperty reads a library property.
type LibraryProperty struct {
	node
	Library lang.LibraryID
	Name    string
}

// LibraryMethod names a library method without calling it.
type LibraryMethod struct {
	node
	Library lang.LibraryID
	Name    string
}

// LibraryEvent names a library event.
type LibraryEvent struct {
	node
	Library lang.LibraryID
	Name    string
}

// LibraryMethodInvocation calls a library method.
type LibraryMethodInvocation struct {
	node
	Library      lang.LibraryID
	Name         string
	Args         []Expr
	ReturnsValue bool
}

// SubModuleInvocation calls a sub-module.
type SubModuleInvocation struct {
	node
	Name string
}

// ArrayAccess reads Name[Indices[0]][Indices[1]]...
type ArrayAccess struct {
	node
	Name    string
	Indices []Expr
}

// Parenthesis groups an expression.
type Parenthesis struct {
	node
	Inner Expr
}

// NumberLiteral is a parsed number.
type NumberLiteral struct {
	node
	Value float64
}

// StringLiteral is string text without quotes.
type StringLiteral struct {
	node
	Value string
}

// Negation is unary minus.
type Negation struct {
	node
	Operand Expr
}

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpOr BinaryOp = iota
	OpAnd
	OpEqual
	OpNotEqual
	OpLessThan
	OpGreaterThan
	OpLessOrEqual
	OpGreaterOrEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
)

var binaryOpNames = [...]string{
	OpOr:             "Or",
	OpAnd:            "And",
	OpEqual:          "=",
	OpNotEqual:       "<>",
	OpLessThan:       "<",
	OpGreaterThan:    ">",
	OpLessOrEqual:    "<=",
	OpGreaterOrEqual: ">=",
	OpAdd:            "+",
	OpSubtract:       "-",
	OpMultiply:       "*",
	OpDivide:         "/",
}

func (op BinaryOp) String() string {
	if op < 0 || int(op) >= len(binaryOpNames) {
		return "unknown"
	}
	return binaryOpNames[op]
}

// Binary applies an infix operator.
type Binary struct {
	node
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*Variable) Kind() ExprKind                { return ExprVariable }
func (*LibraryType) Kind() ExprKind             { return ExprLibraryType }
func (*SubModule) Kind() ExprKind               { return ExprSubModule }
func (*LibraryProperty) Kind() ExprKind         { return ExprLibraryProperty }
func (*LibraryMethod) Kind() ExprKind           { return ExprLibraryMethod }
func (*LibraryEvent) Kind() ExprKind            { return ExprLibraryEvent }
func (*LibraryMethodInvocation) Kind() ExprKind { return ExprLibraryMethodInvocation }
func (*SubModuleInvocation) Kind() ExprKind     { return ExprSubModuleInvocation }
func (*ArrayAccess) Kind() ExprKind             { return ExprArrayAccess }
func (*Parenthesis) Kind() ExprKind             { return ExprParenthesis }
func (*NumberLiteral) Kind() ExprKind           { return ExprNumberLiteral }
func (*StringLiteral) Kind() ExprKind           { return ExprStringLiteral }
func (*Negation) Kind() ExprKind                { return ExprNegation }
func (*Binary) Kind() ExprKind                  { return ExprBinary }

func (*Variable) boundExpr()                {}
func (*LibraryType) boundExpr()             {}
func (*SubModule) boundExpr()               {}
func (*LibraryProperty) boundExpr()         {}
func (*LibraryMethod) boundExpr()           {}
func (*LibraryEvent) boundExpr()            {}
func (*LibraryMethodInvocation) boundExpr() {}
func (*SubModuleInvocation) boundExpr()     {}
func (*ArrayAccess) boundExpr()             {}
func (*Parenthesis) boundExpr()             {}
func (*NumberLiteral) boundExpr()           {}
func (*StringLiteral) boundExpr()           {}
func (*Negation) boundExpr()                {}
func (*Binary) boundExpr()                  {}

// StatementKind discriminates bound statements.
type StatementKind int

const (
	StatementIf StatementKind = iota
	StatementWhile
	StatementFor
	StatementLabel
	StatementGoTo
	StatementVariableAssignment
	StatementArrayAssignment
	StatementPropertyAssignment
	StatementEventAssignment
	StatementInvocation
)

// Statement is a bound statement.
type Statement interface {
	Kind() StatementKind
	Range() diagnostics.Range
	HasErrors() bool
	boundStatement()
}

func newStatementNode(rng diagnostics.Range, local bool, exprs []Expr, bodies ...[]Statement) node {
	n := newNode(rng, local, exprs...)
	for _, body := range bodies {
		n.hasErrors = n.hasErrors || anyStatementErrors(body)
	}
	return n
}

// IfPart is a condition with its body: the If itself or an ElseIf.
type IfPart struct {
	Condition Expr
	Body      []Statement
}

// If runs the body of the first part whose condition holds, else Else.
type If struct {
	node
	Parts []IfPart
	Else  []Statement
}

// While repeats Body while Condition holds.
type While struct {
	node
	Condition Expr
	Body      []Statement
}

// For counts Variable from From to Limit by Step (1 when Step is nil).
type For struct {
	node
	Variable string
	From     Expr
	Limit    Expr
	Step     Expr
	Body     []Statement
}

// Label marks a GoTo target.
type Label struct {
	node
	Name string
}

// GoTo jumps to a label of the same module.
type GoTo struct {
	node
	Label string
}

// VariableAssignment stores Value in a variable.
type VariableAssignment struct {
	node
	Name  string
	Value Expr
}

// ArrayAssignment stores Value in an array element.
type ArrayAssignment struct {
	node
	Target *ArrayAccess
	Value  Expr
}

// PropertyAssignment sets a library property.
type PropertyAssignment struct {
	node
	Library  lang.LibraryID
	Property string
	Value    Expr
}

// EventAssignment binds a sub-module to a library event.
type EventAssignment struct {
	node
	Library lang.LibraryID
	Event   string
	Handler string
}

// Invocation calls a library method or sub-module as a statement.
type Invocation struct {
	node
	Call Expr // *LibraryMethodInvocation or *SubModuleInvocation
}

func (*If) Kind() StatementKind                 { return StatementIf }
func (*While) Kind() StatementKind              { return StatementWhile }
func (*For) Kind() StatementKind                { return StatementFor }
func (*Label) Kind() StatementKind              { return StatementLabel }
func (*GoTo) Kind() StatementKind               { return StatementGoTo }
func (*VariableAssignment) Kind() StatementKind { return StatementVariableAssignment }
func (*ArrayAssignment) Kind() StatementKind    { return StatementArrayAssignment }
func (*PropertyAssignment) Kind() StatementKind { return StatementPropertyAssignment }
func (*EventAssignment) Kind() StatementKind    { return StatementEventAssignment }
func (*Invocation) Kind() StatementKind         { return StatementInvocation }

func (*If) boundStatement()                 {}
func (*While) boundStatement()              {}
func (*For) boundStatement()                {}
func (*Label) boundStatement()              {}
func (*GoTo) boundStatement()               {}
func (*VariableAssignment) boundStatement() {}
func (*ArrayAssignment) boundStatement()    {}
func (*PropertyAssignment) boundStatement() {}
func (*EventAssignment) boundStatement()    {}
func (*Invocation) boundStatement()         {}
