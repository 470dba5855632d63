// Package compiler turns SmallBasic source into engine programs: it parses,
// binds and lowers, collecting diagnostics from every stage.
package compiler

import (
	"io"
	"log/slog"

	"github.com/sergev/sbasic/binder"
	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/lang"
	"github.com/sergev/sbasic/parser"
)

// Result is the outcome of compiling one source text.
type Result struct {
	Tree        *parser.ParseTree
	Modules     binder.Modules
	Diagnostics []diagnostics.Diagnostic
}

type options struct {
	logger *slog.Logger
}

// Option configures Compile.
type Option func(*options)

// WithLogger sets the logger for debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Compile parses and binds src. Parser diagnostics come first, followed by
// binder diagnostics, each in source order of discovery.
func Compile(src string, opts ...Option) *Result {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	tree, diags := parser.ParseString(src)
	modules, bound := binder.Bind(tree)
	diags = append(diags, bound...)

	o.logger.Debug("compiled source",
		"statements", len(tree.Main),
		"subs", len(tree.Subs),
		"diagnostics", len(diags))
	return &Result{Tree: tree, Modules: modules, Diagnostics: diags}
}

// Program lowers the result. It fails with *Error when any diagnostic was
// reported.
func (r *Result) Program() (*lang.Program, error) {
	if err := newError(r.Diagnostics, r.Tree != nil && r.Tree.Misnested); err != nil {
		return nil, err
	}
	return Lower(r.Modules), nil
}

// CompileProgram compiles src straight to a program.
func CompileProgram(src string, opts ...Option) (*lang.Program, error) {
	return Compile(src, opts...).Program()
}
