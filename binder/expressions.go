package binder

import (
	"strconv"

	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/internal/invariant"
	"github.com/sergev/sbasic/lang"
	"github.com/sergev/sbasic/parser"
	"github.com/sergev/sbasic/runtime"
)

// bindExpr binds an expression. expectedValue is true where the expression
// must produce a value; void members and sub-modules are errors there.
func (m *moduleBinder) bindExpr(expr parser.Expr, expectedValue bool) Expr {
	switch e := expr.(type) {
	case *parser.IdentifierExpr:
		return m.bindIdentifier(e, expectedValue)
	case *parser.NumberLiteralExpr:
		return m.bindNumberLiteral(e)
	case *parser.StringLiteralExpr:
		return &StringLiteral{node: newNode(e.Range(), false), Value: e.Value()}
	case *parser.ParenthesisExpr:
		inner := m.bindExpr(e.Inner, true)
		return &Parenthesis{node: newNode(e.Range(), false, inner), Inner: inner}
	case *parser.UnaryExpr:
		invariant.Invariant(e.Operator.Kind == parser.TokenMinus, "unexpected unary operator %s", e.Operator.Kind)
		operand := m.bindExpr(e.Operand, true)
		return &Negation{node: newNode(e.Range(), false, operand), Operand: operand}
	case *parser.BinaryExpr:
		return m.bindBinary(e)
	case *parser.ArrayAccessExpr:
		return m.bindArrayAccess(e)
	case *parser.ObjectAccessExpr:
		return m.bindObjectAccess(e, expectedValue)
	case *parser.InvocationExpr:
		return m.bindInvocation(e, expectedValue)
	default:
		invariant.Unreachable("unexpected expression %T", expr)
		return nil
	}
}

// bindIdentifier resolves a name: library first, then sub-module, otherwise
// a variable. Variables need no declaration.
func (m *moduleBinder) bindIdentifier(e *parser.IdentifierExpr, expectedValue bool) Expr {
	name := e.Name.Text
	if id, ok := lang.LookupLibrary(name); ok {
		return &LibraryType{node: newNode(e.Range(), m.voidInValueContext(e, expectedValue)), Library: id}
	}
	if m.subs[name] {
		return &SubModule{node: newNode(e.Range(), m.voidInValueContext(e, expectedValue)), Name: name}
	}
	return &Variable{node: newNode(e.Range(), false), Name: name}
}

// voidInValueContext reports UnexpectedVoid_ExpectingValue when a value is
// required, and returns whether it did.
func (m *moduleBinder) voidInValueContext(expr parser.Expr, expectedValue bool) bool {
	if expectedValue {
		m.diags.Report(diagnostics.UnexpectedVoidExpectingValue, expr.Range())
	}
	return expectedValue
}

func (m *moduleBinder) bindNumberLiteral(e *parser.NumberLiteralExpr) Expr {
	text := e.Literal.Text
	value, ok := lang.ParseNumber(text)
	if !ok {
		m.diags.Report(diagnostics.ValueIsNotANumber, e.Range(), text)
	}
	return &NumberLiteral{node: newNode(e.Range(), !ok), Value: value}
}

var binaryOps = map[parser.TokenKind]BinaryOp{
	parser.TokenOr:             OpOr,
	parser.TokenAnd:            OpAnd,
	parser.TokenEqual:          OpEqual,
	parser.TokenNotEqual:       OpNotEqual,
	parser.TokenLessThan:       OpLessThan,
	parser.TokenGreaterThan:    OpGreaterThan,
	parser.TokenLessOrEqual:    OpLessOrEqual,
	parser.TokenGreaterOrEqual: OpGreaterOrEqual,
	parser.TokenPlus:           OpAdd,
	parser.TokenMinus:          OpSubtract,
	parser.TokenMultiply:       OpMultiply,
	parser.TokenDivide:         OpDivide,
}

func (m *moduleBinder) bindBinary(e *parser.BinaryExpr) Expr {
	op, ok := binaryOps[e.Operator.Kind]
	invariant.Invariant(ok, "unexpected binary operator %s", e.Operator.Kind)
	left := m.bindExpr(e.Left, true)
	right := m.bindExpr(e.Right, true)
	return &Binary{node: newNode(e.Range(), false, left, right), Op: op, Left: left, Right: right}
}

// bindArrayAccess flattens a chain a[i][j] into the root name and its
// indices in source order.
func (m *moduleBinder) bindArrayAccess(e *parser.ArrayAccessExpr) *ArrayAccess {
	base := m.bindExpr(e.Base, true)
	index := m.bindExpr(e.Index, true)
	hasErrors := base.HasErrors() || index.HasErrors()

	switch b := base.(type) {
	case *ArrayAccess:
		indices := append(append([]Expr(nil), b.Indices...), index)
		return &ArrayAccess{node: newNode(e.Range(), hasErrors), Name: b.Name, Indices: indices}
	case *Variable:
		return &ArrayAccess{node: newNode(e.Range(), hasErrors), Name: b.Name, Indices: []Expr{index}}
	default:
		if !hasErrors {
			m.diags.Report(diagnostics.UnsupportedArrayBaseExpression, base.Range())
		}
		return &ArrayAccess{node: newNode(e.Range(), true), Indices: []Expr{index}}
	}
}

// bindObjectAccess resolves Library.Member against properties, then
// methods, then events.
func (m *moduleBinder) bindObjectAccess(e *parser.ObjectAccessExpr, expectedValue bool) Expr {
	base := m.bindExpr(e.Base, false)
	member := e.Member.Text

	lib, ok := base.(*LibraryType)
	if !ok {
		if !base.HasErrors() {
			d := diagnostics.New(diagnostics.UnsupportedDotBaseExpression, base.Range())
			if ident, isIdent := e.Base.(*parser.IdentifierExpr); isIdent {
				d.Hint = closestMatch(ident.Name.Text, runtime.Names())
			}
			m.diags.Add(d)
		}
		return &LibraryProperty{node: newNode(e.Range(), true, base), Name: member}
	}

	info := runtime.Info(lib.Library)
	if prop, ok := info.Properties[member]; ok {
		local := expectedValue && !prop.HasGetter
		if local {
			m.diags.Report(diagnostics.UnexpectedVoidExpectingValue, e.Range())
		}
		return &LibraryProperty{node: newNode(e.Range(), local, base), Library: lib.Library, Name: member}
	}
	if _, ok := info.Methods[member]; ok {
		return &LibraryMethod{node: newNode(e.Range(), m.voidInValueContext(e, expectedValue), base), Library: lib.Library, Name: member}
	}
	if info.Events[member] {
		return &LibraryEvent{node: newNode(e.Range(), m.voidInValueContext(e, expectedValue), base), Library: lib.Library, Name: member}
	}

	d := diagnostics.New(diagnostics.LibraryMemberNotFound, e.Member.Range, info.Name, member)
	d.Hint = closestMatch(member, info.MemberNames())
	m.diags.Add(d)
	return &LibraryProperty{node: newNode(e.Range(), true, base), Library: lib.Library, Name: member}
}

func (m *moduleBinder) bindInvocation(e *parser.InvocationExpr, expectedValue bool) Expr {
	base := m.bindExpr(e.Base, false)
	args := make([]Expr, len(e.Args))
	for i, arg := range e.Args {
		args[i] = m.bindExpr(arg, true)
	}
	children := append([]Expr{base}, args...)

	switch b := base.(type) {
	case *LibraryMethod:
		method := runtime.Info(b.Library).Methods[b.Name]
		local := false
		if len(args) != method.Arity {
			local = true
			m.diags.Report(diagnostics.UnexpectedArgumentsCount, base.Range(),
				strconv.Itoa(method.Arity), strconv.Itoa(len(args)))
		} else if expectedValue && !method.ReturnsValue {
			local = true
			m.diags.Report(diagnostics.UnexpectedVoidExpectingValue, e.Range())
		}
		return &LibraryMethodInvocation{
			node:         newNode(e.Range(), local, children...),
			Library:      b.Library,
			Name:         b.Name,
			Args:         args,
			ReturnsValue: method.ReturnsValue,
		}
	case *SubModule:
		local := false
		if len(args) != 0 {
			local = true
			m.diags.Report(diagnostics.UnexpectedArgumentsCount, base.Range(), "0", strconv.Itoa(len(args)))
		} else if expectedValue {
			local = true
			m.diags.Report(diagnostics.UnexpectedVoidExpectingValue, e.Range())
		}
		return &SubModuleInvocation{node: newNode(e.Range(), local, children...), Name: b.Name}
	default:
		if !base.HasErrors() {
			m.diags.Report(diagnostics.UnsupportedCallBaseExpression, base.Range())
		}
		return &LibraryMethodInvocation{node: newNode(e.Range(), true, children...), Args: args, ReturnsValue: true}
	}
}
