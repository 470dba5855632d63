package binder

import (
	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/internal/invariant"
	"github.com/sergev/sbasic/lang"
	"github.com/sergev/sbasic/parser"
	"github.com/sergev/sbasic/runtime"
)

func (m *moduleBinder) bindStatements(stmts []parser.Statement) []Statement {
	out := make([]Statement, 0, len(stmts))
	for _, stmt := range stmts {
		if bound := m.bindStatement(stmt); bound != nil {
			out = append(out, bound)
		}
	}
	return out
}

// bindStatement returns nil for statements the parser already rejected.
func (m *moduleBinder) bindStatement(stmt parser.Statement) Statement {
	switch s := stmt.(type) {
	case *parser.IfStatement:
		return m.bindIf(s)
	case *parser.WhileStatement:
		cond := m.bindExpr(s.While.Condition, true)
		body := m.bindStatements(s.Body)
		return &While{node: newStatementNode(s.Range(), false, []Expr{cond}, body), Condition: cond, Body: body}
	case *parser.ForStatement:
		return m.bindFor(s)
	case *parser.LabelStatement:
		return &Label{node: newStatementNode(s.Range(), m.duplicates[s.Command], nil), Name: s.Command.Label.Text}
	case *parser.GoToStatement:
		name := s.Command.Label.Text
		missing := !m.labels[name]
		if missing {
			m.diags.Report(diagnostics.GoToUndefinedLabel, s.Command.Label.Range, name)
		}
		return &GoTo{node: newStatementNode(s.Range(), missing, nil), Label: name}
	case *parser.ExpressionStatement:
		return m.bindExpressionStatement(s)
	case *parser.AssignmentStatement:
		return m.bindAssignment(s.Command)
	case *parser.ErrorStatement:
		return nil
	default:
		invariant.Unreachable("unexpected statement %T", stmt)
		return nil
	}
}

func (m *moduleBinder) bindIf(s *parser.IfStatement) Statement {
	cond := m.bindExpr(s.If.Condition, true)
	parts := []IfPart{{Condition: cond, Body: m.bindStatements(s.Body)}}
	for _, part := range s.ElseIfs {
		body := m.bindStatements(part.Body)
		// A malformed ElseIf line has been reported; its body is still
		// checked but not kept.
		if cmd, ok := part.ElseIf.(*parser.ElseIfCommand); ok {
			parts = append(parts, IfPart{Condition: m.bindExpr(cmd.Condition, true), Body: body})
		}
	}
	var elseBody []Statement
	if s.Else != nil {
		elseBody = m.bindStatements(s.Else.Body)
	}

	exprs := make([]Expr, 0, len(parts))
	bodies := make([][]Statement, 0, len(parts)+1)
	for _, p := range parts {
		exprs = append(exprs, p.Condition)
		bodies = append(bodies, p.Body)
	}
	bodies = append(bodies, elseBody)
	return &If{node: newStatementNode(s.Range(), false, exprs, bodies...), Parts: parts, Else: elseBody}
}

func (m *moduleBinder) bindFor(s *parser.ForStatement) Statement {
	cmd := s.For
	name := cmd.Identifier.Text
	local := false
	if _, isLibrary := lang.LookupLibrary(name); isLibrary || m.subs[name] {
		local = true
		m.diags.Report(diagnostics.ValueIsNotAssignable, cmd.Identifier.Range)
	}
	from := m.bindExpr(cmd.From, true)
	limit := m.bindExpr(cmd.Limit, true)
	var step Expr
	if cmd.StepValue != nil {
		step = m.bindExpr(cmd.StepValue, true)
	}
	body := m.bindStatements(s.Body)
	return &For{
		node:     newStatementNode(s.Range(), local, []Expr{from, limit, step}, body),
		Variable: name,
		From:     from,
		Limit:    limit,
		Step:     step,
		Body:     body,
	}
}

func (m *moduleBinder) bindExpressionStatement(s *parser.ExpressionStatement) Statement {
	call := m.bindExpr(s.Command.Expr, false)
	local := false
	switch call.Kind() {
	case ExprLibraryMethodInvocation, ExprSubModuleInvocation:
	default:
		local = true
		if !call.HasErrors() {
			m.diags.Report(diagnostics.UnassignedExpressionStatement, call.Range())
		}
	}
	return &Invocation{node: newStatementNode(s.Range(), local, []Expr{call}), Call: call}
}

func (m *moduleBinder) bindAssignment(cmd *parser.AssignmentCommand) Statement {
	rng := cmd.Range()
	target := m.bindExpr(cmd.Target, false)

	if event, ok := target.(*LibraryEvent); ok {
		handler, ok := m.eventHandler(cmd.Value)
		if !ok {
			m.diags.Report(diagnostics.UnsupportedEventHandler, cmd.Value.Range())
		}
		return &EventAssignment{
			node:    newStatementNode(rng, !ok, []Expr{target}),
			Library: event.Library,
			Event:   event.Name,
			Handler: handler,
		}
	}

	value := m.bindExpr(cmd.Value, true)
	switch t := target.(type) {
	case *Variable:
		return &VariableAssignment{node: newStatementNode(rng, false, []Expr{target, value}), Name: t.Name, Value: value}
	case *ArrayAccess:
		return &ArrayAssignment{node: newStatementNode(rng, false, []Expr{target, value}), Target: t, Value: value}
	case *LibraryProperty:
		local := false
		if !t.HasErrors() && !runtime.Info(t.Library).Properties[t.Name].HasSetter {
			local = true
			m.diags.Report(diagnostics.PropertyHasNoSetter, t.Range())
		}
		return &PropertyAssignment{
			node:     newStatementNode(rng, local, []Expr{target, value}),
			Library:  t.Library,
			Property: t.Name,
			Value:    value,
		}
	default:
		if !target.HasErrors() {
			m.diags.Report(diagnostics.ValueIsNotAssignable, target.Range())
		}
		return &VariableAssignment{node: newStatementNode(rng, true, []Expr{target, value}), Value: value}
	}
}

// eventHandler accepts only the bare name of a declared sub-module.
func (m *moduleBinder) eventHandler(expr parser.Expr) (string, bool) {
	ident, ok := expr.(*parser.IdentifierExpr)
	if !ok {
		return "", false
	}
	name := ident.Name.Text
	if _, isLibrary := lang.LookupLibrary(name); isLibrary || !m.subs[name] {
		return "", false
	}
	return name, true
}
