package lang

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/internal/invariant"
)

// Engine executes a Program one instruction at a time. It is single-threaded
// and never blocks: the driver calls Step or Run, and input is supplied
// through ProvideInput while the engine waits.
type Engine struct {
	program   *Program
	state     State
	frames    []*frame
	stack     []Value
	globals   *Env
	libraries [LibraryCount]*LibraryInstance

	events   map[eventKey]string
	handling map[eventKey]bool
	hooks    []func(*Engine)

	diag         *diagnostics.Diagnostic
	input        *InputKind
	pausedInCall bool
	breakpoints  map[int]bool
	stepping     bool
	stepped      int

	logger *slog.Logger
}

type frame struct {
	module  string
	code    []Instruction
	pc      int
	env     *Env
	event   *eventKey
	checked bool // statement boundary at pc already processed
}

type eventKey struct {
	library LibraryID
	name    string
}

// InputKind is the kind of text a library is waiting for.
type InputKind int

const (
	InputText InputKind = iota
	InputNumber
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for debug records. The default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithVariables seeds the main module's variables.
func WithVariables(vars map[string]Value) Option {
	return func(e *Engine) {
		for name, val := range vars {
			e.globals.Set(name, val)
		}
	}
}

// WithBreakpoints pauses Debug runs at statements starting on these lines.
func WithBreakpoints(lines ...int) Option {
	return func(e *Engine) {
		for _, line := range lines {
			e.breakpoints[line] = true
		}
	}
}

// WithLibrary installs a library instance, replacing any with the same ID.
func WithLibrary(lib *LibraryInstance) Option {
	return func(e *Engine) {
		e.libraries[lib.ID] = lib
	}
}

// NewEngine creates an engine positioned at the first instruction of the main
// module.
func NewEngine(program *Program, opts ...Option) *Engine {
	invariant.Precondition(program != nil, "program must not be nil")
	e := &Engine{
		program:     program,
		state:       StateRunning,
		globals:     NewEnv(),
		events:      make(map[eventKey]string),
		handling:    make(map[eventKey]bool),
		breakpoints: make(map[int]bool),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.frames = []*frame{{module: MainModule, code: program.Main(), env: e.globals}}
	for _, lib := range e.libraries {
		if lib != nil && lib.Install != nil {
			lib.Install(e)
		}
	}
	return e
}

// State returns the current execution state.
func (e *Engine) State() State {
	return e.state
}

// WaitingForInput reports whether the engine is suspended until ProvideInput.
func (e *Engine) WaitingForInput() bool {
	return e.input != nil
}

// Diagnostic returns the fatal runtime diagnostic, if execution hit one.
func (e *Engine) Diagnostic() (diagnostics.Diagnostic, bool) {
	if e.diag == nil {
		return diagnostics.Diagnostic{}, false
	}
	return *e.diag, true
}

// Variables returns the variables of the innermost frame.
func (e *Engine) Variables() map[string]Value {
	if len(e.frames) == 0 {
		return map[string]Value{}
	}
	return e.frames[len(e.frames)-1].env.Snapshot()
}

// Globals returns the main module's variables. They remain available after
// the program terminates.
func (e *Engine) Globals() map[string]Value {
	return e.globals.Snapshot()
}

// FrameInfo describes one active frame for inspection.
type FrameInfo struct {
	Module string
	PC     int
	Range  diagnostics.Range
}

// CallStack lists the active frames, innermost last.
func (e *Engine) CallStack() []FrameInfo {
	out := make([]FrameInfo, 0, len(e.frames))
	for _, fr := range e.frames {
		info := FrameInfo{Module: fr.module, PC: fr.pc}
		if fr.pc < len(fr.code) {
			info.Range = fr.code[fr.pc].Range
		}
		out = append(out, info)
	}
	return out
}

// CurrentRange returns the range of the next instruction to execute.
func (e *Engine) CurrentRange() (diagnostics.Range, bool) {
	if len(e.frames) == 0 {
		return diagnostics.Range{}, false
	}
	fr := e.top()
	if fr.pc >= len(fr.code) {
		return diagnostics.Range{}, false
	}
	return fr.code[fr.pc].Range, true
}

// StackDepth returns the number of values on the evaluation stack.
func (e *Engine) StackDepth() int {
	return len(e.stack)
}

// SetBreakpoint pauses Debug runs at statements starting on line.
func (e *Engine) SetBreakpoint(line int) {
	e.breakpoints[line] = true
}

// ClearBreakpoint removes a breakpoint.
func (e *Engine) ClearBreakpoint(line int) {
	delete(e.breakpoints, line)
}

// Library returns the installed instance for id, or nil.
func (e *Engine) Library(id LibraryID) *LibraryInstance {
	return e.libraries[id]
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Terminate stops the program. It is a no-op once terminated.
func (e *Engine) Terminate() {
	e.fire(EventTerminate)
}

// End stops the program normally.
func (e *Engine) End() {
	e.fire(EventProgramEnd)
}

// Pause applies a Pause call in the given mode: in Debug mode a running
// program pauses, in either mode a paused program resumes.
func (e *Engine) Pause(mode Mode) {
	e.fire(PauseEvent(mode))
}

// Fatal terminates the program with a runtime diagnostic.
func (e *Engine) Fatal(d diagnostics.Diagnostic) {
	if e.state == StateTerminated {
		return
	}
	e.diag = &d
	e.logger.Debug("fatal diagnostic", "code", d.Code.String(), "range", d.Range.String())
	e.fire(EventFatal)
}

func (e *Engine) fire(ev Event) {
	prev := e.state
	e.state = Next(prev, ev)
	if prev != e.state {
		e.logger.Debug("state transition", "from", prev.String(), "event", ev.String(), "to", e.state.String())
	}
	if e.state == StateTerminated {
		e.frames = nil
		e.stack = nil
		e.input = nil
		e.pausedInCall = false
	}
}

// Push places a value on the evaluation stack.
func (e *Engine) Push(v Value) {
	e.stack = append(e.stack, v)
}

// Pop removes the top of the evaluation stack. Lowering guarantees the
// stack holds every operand an instruction or library member pops.
func (e *Engine) Pop() Value {
	invariant.Invariant(len(e.stack) > 0, "evaluation stack underflow")
	v := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return v
}

// WaitForInput suspends the engine until ProvideInput supplies a value. It is
// called by library members that read input.
func (e *Engine) WaitForInput(kind InputKind) {
	e.input = &kind
}

// ErrNotWaiting is returned by ProvideInput when no input was requested.
var ErrNotWaiting = errors.New("engine is not waiting for input")

// ProvideInput completes a pending read. Number reads reject text that is not
// a number and keep waiting.
func (e *Engine) ProvideInput(text string) error {
	if e.input == nil {
		return ErrNotWaiting
	}
	switch *e.input {
	case InputNumber:
		f, ok := ParseNumber(text)
		if !ok {
			return fmt.Errorf("%q is not a number", text)
		}
		e.Push(NumberValue(f))
	default:
		e.Push(StringValue(text))
	}
	e.input = nil
	if len(e.frames) > 0 {
		e.top().advance()
	}
	return nil
}

// AddStatementHook registers fn to run whenever a frame reaches a statement
// boundary. Hooks may raise events.
func (e *Engine) AddStatementHook(fn func(*Engine)) {
	e.hooks = append(e.hooks, fn)
}

// RaiseEvent runs the sub-module bound to a library event. It reports false
// when nothing is bound or the handler is already running.
func (e *Engine) RaiseEvent(lib LibraryID, name string) bool {
	key := eventKey{library: lib, name: name}
	sub, ok := e.events[key]
	if !ok || e.handling[key] || e.state == StateTerminated {
		return false
	}
	e.handling[key] = true
	e.pushFrame(sub, &key)
	return true
}

func (e *Engine) top() *frame {
	return e.frames[len(e.frames)-1]
}

func (e *Engine) pushFrame(module string, event *eventKey) {
	code, ok := e.program.Modules[module]
	invariant.Invariant(ok, "unknown module %q", module)
	e.frames = append(e.frames, &frame{module: module, code: code, env: NewEnv(), event: event})
	e.logger.Debug("push frame", "module", module, "depth", len(e.frames))
}

func (e *Engine) popFrame() {
	fr := e.top()
	e.frames = e.frames[:len(e.frames)-1]
	if fr.event != nil {
		delete(e.handling, *fr.event)
	}
	e.logger.Debug("pop frame", "module", fr.module, "depth", len(e.frames))
}

// Run steps until the program leaves the Running state or waits for input.
func (e *Engine) Run(mode Mode) State {
	return e.RunContext(context.Background(), mode)
}

// RunContext is Run with cancellation, checked between instructions. A
// cancelled run is terminated.
func (e *Engine) RunContext(ctx context.Context, mode Mode) State {
	for e.state == StateRunning && e.input == nil {
		if ctx.Err() != nil {
			e.Terminate()
			break
		}
		e.Step(mode)
	}
	return e.state
}

// StepStatement runs in Debug mode until the next statement boundary and
// pauses there. A paused program is resumed first; a library call that
// completes on resume counts as the step's work.
func (e *Engine) StepStatement() State {
	e.stepped = 0
	if e.state == StatePaused {
		if e.pausedInCall {
			e.stepped = 1
		}
		e.Resume()
	}
	e.stepping = true
	defer func() { e.stepping = false }()
	return e.Run(ModeDebug)
}

// Resume continues a paused program. When the pause came from a library
// call, the call is made again so that it can complete.
func (e *Engine) Resume() State {
	if e.state != StatePaused {
		return e.state
	}
	if e.pausedInCall {
		e.pausedInCall = false
		e.execute(e.top(), e.top().code[e.top().pc], ModeDebug)
		return e.state
	}
	e.fire(EventResume)
	return e.state
}

// Step executes one instruction. It does nothing unless the engine is
// Running and not waiting for input.
func (e *Engine) Step(mode Mode) State {
	if e.state != StateRunning || e.input != nil {
		return e.state
	}
	if len(e.frames) == 0 {
		e.End()
		return e.state
	}
	fr := e.top()
	if fr.pc >= len(fr.code) {
		e.popFrame()
		if len(e.frames) == 0 {
			e.End()
		}
		return e.state
	}
	ins := fr.code[fr.pc]
	if ins.Statement && !fr.checked {
		fr.checked = true
		invariant.Invariant(len(e.stack) == 0, "evaluation stack must be empty at a statement boundary")
		if e.atBoundary(fr, ins, mode) {
			return e.state
		}
	}
	e.execute(fr, ins, mode)
	e.stepped++
	return e.state
}

// atBoundary runs statement hooks and debugger checks. It reports true when
// the instruction must not run yet.
func (e *Engine) atBoundary(fr *frame, ins Instruction, mode Mode) bool {
	depth := len(e.frames)
	for _, hook := range e.hooks {
		hook(e)
	}
	if len(e.frames) != depth || e.state != StateRunning {
		return true
	}
	if mode != ModeDebug {
		return false
	}
	if (e.stepping && e.stepped > 0) || e.breakpoints[ins.Range.Start.Line] {
		e.fire(EventStepBoundary)
		return true
	}
	return false
}

func (e *Engine) execute(fr *frame, ins Instruction, mode Mode) {
	switch ins.Op {
	case OpPushNumber:
		e.Push(NumberValue(ins.Number))
	case OpPushString:
		e.Push(StringValue(ins.Text))
	case OpLoadVariable:
		e.Push(fr.env.Get(ins.Text))
	case OpStoreVariable:
		fr.env.Set(ins.Text, e.Pop())
	case OpLoadArrayElement:
		keys, ok := e.popIndices(ins)
		if !ok {
			return
		}
		e.Push(loadElement(fr.env.Get(ins.Text), keys))
	case OpStoreArrayElement:
		val := e.Pop()
		keys, ok := e.popIndices(ins)
		if !ok {
			return
		}
		fr.env.Set(ins.Text, storeElement(fr.env.Get(ins.Text), keys, val))
	case OpLoadProperty, OpStoreProperty, OpCallMethod:
		e.callLibrary(fr, ins, mode)
		return
	case OpCallSub:
		fr.advance()
		e.pushFrame(ins.Text, nil)
		return
	case OpBindEvent:
		e.events[eventKey{library: ins.Library, name: ins.Member}] = ins.Text
	case OpNegate:
		v, err := e.Pop().Negate()
		if !e.pushResult(v, err, ins) {
			return
		}
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		right := e.Pop()
		left := e.Pop()
		v, err := arithmetic(ins.Op, left, right)
		if !e.pushResult(v, err, ins) {
			return
		}
	case OpEqual, OpNotEqual, OpLessThan, OpGreaterThan, OpLessOrEqual, OpGreaterOrEqual:
		right := e.Pop()
		left := e.Pop()
		b, err := compare(ins.Op, left, right)
		if !e.pushResult(BoolValue(b), err, ins) {
			return
		}
	case OpJump:
		fr.jump(ins.Target)
		return
	case OpJumpIfFalse, OpJumpIfTrue:
		cond := e.Pop().ToBoolean()
		if cond == (ins.Op == OpJumpIfTrue) {
			fr.jump(ins.Target)
			return
		}
	case OpPop:
		e.Pop()
	default:
		invariant.Unreachable("unexpected opcode %s", ins.Op)
	}
	fr.advance()
}

func (fr *frame) advance() {
	fr.pc++
	fr.checked = false
}

func (fr *frame) jump(target int) {
	invariant.Invariant(target >= 0 && target <= len(fr.code), "jump target %d out of range", target)
	fr.pc = target
	fr.checked = false
}

// pushResult pushes v, or terminates with err's diagnostic. It reports
// whether execution continues.
func (e *Engine) pushResult(v Value, err error, ins Instruction) bool {
	if err != nil {
		var rerr *RuntimeError
		invariant.Invariant(errors.As(err, &rerr), "unexpected value error %v", err)
		e.Fatal(diagnostics.New(rerr.Code, ins.Range, rerr.Args...))
		return false
	}
	e.Push(v)
	return true
}

func arithmetic(op OpCode, left, right Value) (Value, error) {
	switch op {
	case OpAdd:
		return left.Add(right)
	case OpSubtract:
		return left.Subtract(right)
	case OpMultiply:
		return left.Multiply(right)
	case OpDivide:
		return left.Divide(right)
	default:
		invariant.Unreachable("unexpected arithmetic opcode %s", op)
		return Value{}, nil
	}
}

func compare(op OpCode, left, right Value) (bool, error) {
	switch op {
	case OpEqual:
		return left.IsEqualTo(right), nil
	case OpNotEqual:
		return !left.IsEqualTo(right), nil
	case OpLessThan:
		return left.IsLessThan(right)
	case OpGreaterThan:
		return left.IsGreaterThan(right)
	case OpLessOrEqual:
		less, err := left.IsLessThan(right)
		return less || (err == nil && left.IsEqualTo(right)), err
	case OpGreaterOrEqual:
		greater, err := left.IsGreaterThan(right)
		return greater || (err == nil && left.IsEqualTo(right)), err
	default:
		invariant.Unreachable("unexpected comparison opcode %s", op)
		return false, nil
	}
}

// popIndices pops ins.Count index values, first index deepest.
func (e *Engine) popIndices(ins Instruction) ([]string, bool) {
	keys := make([]string, ins.Count)
	for i := ins.Count - 1; i >= 0; i-- {
		idx := e.Pop()
		if idx.Type == TypeArray {
			e.Fatal(diagnostics.New(diagnostics.CannotUseAnArrayAsAnIndexToAnotherArray, ins.Range))
			return nil, false
		}
		keys[i] = idx.ToValueString()
	}
	return keys, true
}

func loadElement(root Value, keys []string) Value {
	cur := root
	for _, key := range keys {
		if cur.Type != TypeArray {
			return Value{}
		}
		next, ok := cur.Arr().Get(key)
		if !ok {
			return Value{}
		}
		cur = next
	}
	return cur
}

func storeElement(root Value, keys []string, val Value) Value {
	if len(keys) == 0 {
		return val
	}
	arr := NewArray()
	if root.Type == TypeArray {
		arr = root.Arr()
	}
	child, _ := arr.Get(keys[0])
	return ArrayValue(arr.With(keys[0], storeElement(child, keys[1:], val)))
}

func (e *Engine) callLibrary(fr *frame, ins Instruction, mode Mode) {
	lib := e.libraries[ins.Library]
	invariant.Invariant(lib != nil, "library %s is not installed", ins.Library)

	var exec Executable
	effect := 0
	switch ins.Op {
	case OpCallMethod:
		m, ok := lib.Methods[ins.Member]
		invariant.Invariant(ok, "library %s has no method %s", ins.Library, ins.Member)
		exec = m.Execute
		effect = -m.Arity
		if m.ReturnsValue {
			effect++
		}
	case OpLoadProperty:
		p, ok := lib.Properties[ins.Member]
		invariant.Invariant(ok && p.Get != nil, "library %s has no readable property %s", ins.Library, ins.Member)
		exec = p.Get
		effect = 1
	case OpStoreProperty:
		p, ok := lib.Properties[ins.Member]
		invariant.Invariant(ok && p.Set != nil, "library %s has no writable property %s", ins.Library, ins.Member)
		exec = p.Set
		effect = -1
	}

	depth := len(e.stack)
	wasPaused := e.state == StatePaused
	exec(e, mode, ins.Range)

	switch {
	case e.state == StateTerminated:
	case e.input != nil:
		// Arguments are consumed; the result arrives with ProvideInput.
	case e.state == StatePaused:
		e.pausedInCall = !wasPaused
	default:
		invariant.Invariant(len(e.stack) == depth+effect,
			"%s.%s changed the stack by %d, expected %d", ins.Library, ins.Member, len(e.stack)-depth, effect)
		fr.advance()
	}
}
