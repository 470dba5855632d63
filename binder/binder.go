package binder

import (
	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/internal/invariant"
	"github.com/sergev/sbasic/lang"
	"github.com/sergev/sbasic/parser"
)

type binder struct {
	diags *diagnostics.Bag
	subs  map[string]bool
}

// Bind resolves the parse tree in two passes. The first collects sub-module
// names; the second binds the main module and every sub-module against them.
// Binding never stops at a diagnostic: nodes that have problems are still
// produced and report HasErrors.
func Bind(tree *parser.ParseTree) (Modules, []diagnostics.Diagnostic) {
	invariant.Precondition(tree != nil, "parse tree must not be nil")
	b := &binder{
		diags: &diagnostics.Bag{},
		subs:  make(map[string]bool),
	}

	var subs []*parser.SubModule
	for _, sub := range tree.Subs {
		name := sub.Name()
		if b.subs[name] {
			b.diags.Report(diagnostics.TwoSubModulesWithTheSameName, sub.Sub.Name.Range, name)
			continue
		}
		b.subs[name] = true
		subs = append(subs, sub)
	}

	modules := Modules{lang.MainModule: b.bindModule(tree.Main)}
	for _, sub := range subs {
		modules[sub.Name()] = b.bindModule(sub.Body)
	}
	return modules, b.diags.Items()
}

// moduleBinder binds the statements of one module. Labels are scoped to the
// module.
type moduleBinder struct {
	*binder
	labels     map[string]bool
	duplicates map[*parser.LabelCommand]bool
}

func (b *binder) bindModule(stmts []parser.Statement) []Statement {
	m := &moduleBinder{
		binder:     b,
		labels:     make(map[string]bool),
		duplicates: make(map[*parser.LabelCommand]bool),
	}
	m.collectLabels(stmts)
	return m.bindStatements(stmts)
}

func (m *moduleBinder) collectLabels(stmts []parser.Statement) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *parser.LabelStatement:
			name := s.Command.Label.Text
			if m.labels[name] {
				m.duplicates[s.Command] = true
				m.diags.Report(diagnostics.TwoLabelsWithTheSameName, s.Command.Label.Range, name)
				continue
			}
			m.labels[name] = true
		case *parser.IfStatement:
			m.collectLabels(s.Body)
			for _, part := range s.ElseIfs {
				m.collectLabels(part.Body)
			}
			if s.Else != nil {
				m.collectLabels(s.Else.Body)
			}
		case *parser.WhileStatement:
			m.collectLabels(s.Body)
		case *parser.ForStatement:
			m.collectLabels(s.Body)
		}
	}
}
