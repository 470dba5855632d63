package compiler

import (
	"fmt"

	"github.com/sergev/sbasic/binder"
	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/internal/invariant"
	"github.com/sergev/sbasic/lang"
)

// Lower translates bound modules into engine instructions. The modules must
// be free of errors.
func Lower(modules binder.Modules) *lang.Program {
	invariant.Precondition(!modules.HasErrors(), "cannot lower modules with errors")
	program := &lang.Program{Modules: make(map[string][]lang.Instruction, len(modules))}
	for name, stmts := range modules {
		program.Modules[name] = lowerModule(stmts)
	}
	if _, ok := program.Modules[lang.MainModule]; !ok {
		program.Modules[lang.MainModule] = nil
	}
	return program
}

type pendingJump struct {
	at    int
	label string
}

type lowerer struct {
	code   []lang.Instruction
	labels map[string]int
	gotos  []pendingJump
	loops  int

	// statement is the range of a statement whose first instruction has
	// not been emitted yet.
	statement *diagnostics.Range
}

func lowerModule(stmts []binder.Statement) []lang.Instruction {
	l := &lowerer{labels: make(map[string]int)}
	l.statements(stmts)
	for _, g := range l.gotos {
		target, ok := l.labels[g.label]
		invariant.Invariant(ok, "goto to unknown label %q", g.label)
		l.code[g.at].Target = target
	}
	return l.code
}

// mark flags the next emitted instruction as the start of a statement.
func (l *lowerer) mark(rng diagnostics.Range) {
	l.statement = &rng
}

func (l *lowerer) emit(ins lang.Instruction, rng diagnostics.Range) int {
	ins.Range = rng
	if l.statement != nil {
		ins.Statement = true
		ins.Range = *l.statement
		l.statement = nil
	}
	l.code = append(l.code, ins)
	return len(l.code) - 1
}

func (l *lowerer) here() int {
	return len(l.code)
}

// jump emits a jump whose target is patched later.
func (l *lowerer) jump(op lang.OpCode, rng diagnostics.Range) int {
	return l.emit(lang.Instruction{Op: op}, rng)
}

func (l *lowerer) patch(at int) {
	l.code[at].Target = l.here()
}

func (l *lowerer) statements(stmts []binder.Statement) {
	for _, stmt := range stmts {
		l.statementCode(stmt)
	}
}

func (l *lowerer) statementCode(stmt binder.Statement) {
	rng := stmt.Range()
	switch s := stmt.(type) {
	case *binder.If:
		l.ifCode(s)
	case *binder.While:
		check := l.here()
		l.mark(rng)
		l.expr(s.Condition)
		exit := l.jump(lang.OpJumpIfFalse, rng)
		l.statements(s.Body)
		l.emit(lang.Instruction{Op: lang.OpJump, Target: check}, rng)
		l.patch(exit)
	case *binder.For:
		l.forCode(s)
	case *binder.Label:
		l.labels[s.Name] = l.here()
	case *binder.GoTo:
		l.mark(rng)
		at := l.jump(lang.OpJump, rng)
		l.gotos = append(l.gotos, pendingJump{at: at, label: s.Label})
	case *binder.VariableAssignment:
		l.mark(rng)
		l.expr(s.Value)
		l.emit(lang.Instruction{Op: lang.OpStoreVariable, Text: s.Name}, rng)
	case *binder.ArrayAssignment:
		l.mark(rng)
		for _, idx := range s.Target.Indices {
			l.expr(idx)
		}
		l.expr(s.Value)
		l.emit(lang.Instruction{Op: lang.OpStoreArrayElement, Text: s.Target.Name, Count: len(s.Target.Indices)}, rng)
	case *binder.PropertyAssignment:
		l.mark(rng)
		l.expr(s.Value)
		l.emit(lang.Instruction{Op: lang.OpStoreProperty, Library: s.Library, Member: s.Property}, rng)
	case *binder.EventAssignment:
		l.mark(rng)
		l.emit(lang.Instruction{Op: lang.OpBindEvent, Library: s.Library, Member: s.Event, Text: s.Handler}, rng)
	case *binder.Invocation:
		l.mark(rng)
		switch call := s.Call.(type) {
		case *binder.LibraryMethodInvocation:
			l.expr(call)
			if call.ReturnsValue {
				l.emit(lang.Instruction{Op: lang.OpPop}, rng)
			}
		case *binder.SubModuleInvocation:
			l.emit(lang.Instruction{Op: lang.OpCallSub, Text: call.Name}, rng)
		default:
			invariant.Unreachable("unexpected invocation %T", s.Call)
		}
	default:
		invariant.Unreachable("unexpected statement %T", stmt)
	}
}

// ifCode tests each part in turn; a false condition skips to the next part.
func (l *lowerer) ifCode(s *binder.If) {
	var exits []int
	for i, part := range s.Parts {
		if i == 0 {
			l.mark(s.Range())
		} else {
			l.mark(part.Condition.Range())
		}
		l.expr(part.Condition)
		next := l.jump(lang.OpJumpIfFalse, part.Condition.Range())
		l.statements(part.Body)
		exits = append(exits, l.jump(lang.OpJump, s.Range()))
		l.patch(next)
	}
	l.statements(s.Else)
	for _, at := range exits {
		l.patch(at)
	}
}

// forCode keeps the limit and step in hidden per-loop variables. The loop
// runs while the counter has not passed the limit in the step's direction.
func (l *lowerer) forCode(s *binder.For) {
	rng := s.Range()
	l.loops++
	limit := fmt.Sprintf("%sto%d", lang.HiddenPrefix, l.loops)
	step := fmt.Sprintf("%sstep%d", lang.HiddenPrefix, l.loops)

	l.mark(rng)
	l.expr(s.From)
	l.emit(lang.Instruction{Op: lang.OpStoreVariable, Text: s.Variable}, rng)
	l.expr(s.Limit)
	l.emit(lang.Instruction{Op: lang.OpStoreVariable, Text: limit}, rng)
	if s.Step != nil {
		l.expr(s.Step)
	} else {
		l.emit(lang.Instruction{Op: lang.OpPushNumber, Number: 1}, rng)
	}
	l.emit(lang.Instruction{Op: lang.OpStoreVariable, Text: step}, rng)

	check := l.here()
	l.mark(rng)
	l.emit(lang.Instruction{Op: lang.OpLoadVariable, Text: step}, rng)
	l.emit(lang.Instruction{Op: lang.OpPushNumber, Number: 0}, rng)
	l.emit(lang.Instruction{Op: lang.OpLessThan}, rng)
	down := l.jump(lang.OpJumpIfTrue, rng)

	l.emit(lang.Instruction{Op: lang.OpLoadVariable, Text: s.Variable}, rng)
	l.emit(lang.Instruction{Op: lang.OpLoadVariable, Text: limit}, rng)
	l.emit(lang.Instruction{Op: lang.OpLessOrEqual}, rng)
	exitUp := l.jump(lang.OpJumpIfFalse, rng)
	body := l.jump(lang.OpJump, rng)

	l.patch(down)
	l.emit(lang.Instruction{Op: lang.OpLoadVariable, Text: s.Variable}, rng)
	l.emit(lang.Instruction{Op: lang.OpLoadVariable, Text: limit}, rng)
	l.emit(lang.Instruction{Op: lang.OpGreaterOrEqual}, rng)
	exitDown := l.jump(lang.OpJumpIfFalse, rng)

	l.patch(body)
	l.statements(s.Body)
	l.emit(lang.Instruction{Op: lang.OpLoadVariable, Text: s.Variable}, rng)
	l.emit(lang.Instruction{Op: lang.OpLoadVariable, Text: step}, rng)
	l.emit(lang.Instruction{Op: lang.OpAdd}, rng)
	l.emit(lang.Instruction{Op: lang.OpStoreVariable, Text: s.Variable}, rng)
	l.emit(lang.Instruction{Op: lang.OpJump, Target: check}, rng)

	l.patch(exitUp)
	l.patch(exitDown)
}

var binaryOpCodes = map[binder.BinaryOp]lang.OpCode{
	binder.OpEqual:          lang.OpEqual,
	binder.OpNotEqual:       lang.OpNotEqual,
	binder.OpLessThan:       lang.OpLessThan,
	binder.OpGreaterThan:    lang.OpGreaterThan,
	binder.OpLessOrEqual:    lang.OpLessOrEqual,
	binder.OpGreaterOrEqual: lang.OpGreaterOrEqual,
	binder.OpAdd:            lang.OpAdd,
	binder.OpSubtract:       lang.OpSubtract,
	binder.OpMultiply:       lang.OpMultiply,
	binder.OpDivide:         lang.OpDivide,
}

// expr emits code that leaves the expression's value on the stack.
func (l *lowerer) expr(e binder.Expr) {
	rng := e.Range()
	switch e := e.(type) {
	case *binder.Variable:
		l.emit(lang.Instruction{Op: lang.OpLoadVariable, Text: e.Name}, rng)
	case *binder.ArrayAccess:
		for _, idx := range e.Indices {
			l.expr(idx)
		}
		l.emit(lang.Instruction{Op: lang.OpLoadArrayElement, Text: e.Name, Count: len(e.Indices)}, rng)
	case *binder.LibraryProperty:
		l.emit(lang.Instruction{Op: lang.OpLoadProperty, Library: e.Library, Member: e.Name}, rng)
	case *binder.LibraryMethodInvocation:
		for _, arg := range e.Args {
			l.expr(arg)
		}
		l.emit(lang.Instruction{Op: lang.OpCallMethod, Library: e.Library, Member: e.Name}, rng)
	case *binder.Parenthesis:
		l.expr(e.Inner)
	case *binder.NumberLiteral:
		l.emit(lang.Instruction{Op: lang.OpPushNumber, Number: e.Value}, rng)
	case *binder.StringLiteral:
		l.emit(lang.Instruction{Op: lang.OpPushString, Text: e.Value}, rng)
	case *binder.Negation:
		l.expr(e.Operand)
		l.emit(lang.Instruction{Op: lang.OpNegate}, rng)
	case *binder.Binary:
		l.binary(e)
	default:
		invariant.Unreachable("expression %T has no value", e)
	}
}

func (l *lowerer) binary(e *binder.Binary) {
	rng := e.Range()
	switch e.Op {
	case binder.OpAnd, binder.OpOr:
		// And stops at the first false operand, Or at the first true one.
		stop, result, otherwise := lang.OpJumpIfFalse, lang.FalseString, lang.TrueString
		if e.Op == binder.OpOr {
			stop, result, otherwise = lang.OpJumpIfTrue, lang.TrueString, lang.FalseString
		}
		l.expr(e.Left)
		first := l.jump(stop, rng)
		l.expr(e.Right)
		second := l.jump(stop, rng)
		l.emit(lang.Instruction{Op: lang.OpPushString, Text: otherwise}, rng)
		end := l.jump(lang.OpJump, rng)
		l.patch(first)
		l.patch(second)
		l.emit(lang.Instruction{Op: lang.OpPushString, Text: result}, rng)
		l.patch(end)
	default:
		op, ok := binaryOpCodes[e.Op]
		invariant.Invariant(ok, "unexpected binary operator %s", e.Op)
		l.expr(e.Left)
		l.expr(e.Right)
		l.emit(lang.Instruction{Op: op}, rng)
	}
}
