package lang

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergev/sbasic/diagnostics"
)

// statement is a run of instructions on one source line; assemble marks the
// first one as the statement boundary.
type statement struct {
	line int
	code []Instruction
}

func assemble(stmts ...statement) []Instruction {
	var out []Instruction
	for _, s := range stmts {
		for i, ins := range s.code {
			ins.Statement = i == 0
			ins.Range = diagnostics.Range{
				Start: diagnostics.Position{Line: s.line, Column: 1},
				End:   diagnostics.Position{Line: s.line, Column: 10},
			}
			out = append(out, ins)
		}
	}
	return out
}

func testLibraries() []Option {
	program := &LibraryInstance{
		ID: LibraryProgram,
		Methods: map[string]Method{
			"Pause": {Execute: func(e *Engine, mode Mode, _ diagnostics.Range) { e.Pause(mode) }},
			"End":   {Execute: func(e *Engine, _ Mode, _ diagnostics.Range) { e.End() }},
		},
	}
	input := &LibraryInstance{
		ID: LibraryTextWindow,
		Methods: map[string]Method{
			"Read":       {ReturnsValue: true, Execute: func(e *Engine, _ Mode, _ diagnostics.Range) { e.WaitForInput(InputText) }},
			"ReadNumber": {ReturnsValue: true, Execute: func(e *Engine, _ Mode, _ diagnostics.Range) { e.WaitForInput(InputNumber) }},
		},
	}
	return []Option{WithLibrary(program), WithLibrary(input)}
}

func newTestEngine(modules map[string][]Instruction, opts ...Option) *Engine {
	return NewEngine(&Program{Modules: modules}, append(testLibraries(), opts...)...)
}

func call(lib LibraryID, member string) Instruction {
	return Instruction{Op: OpCallMethod, Library: lib, Member: member}
}

func TestRunArithmetic(t *testing.T) {
	e := newTestEngine(map[string][]Instruction{
		MainModule: assemble(
			statement{1, []Instruction{
				{Op: OpPushNumber, Number: 2},
				{Op: OpPushNumber, Number: 3},
				{Op: OpPushNumber, Number: 4},
				{Op: OpMultiply},
				{Op: OpAdd},
				{Op: OpStoreVariable, Text: "x"},
			}},
			statement{2, []Instruction{
				{Op: OpLoadVariable, Text: "x"},
				{Op: OpPushString, Text: " 14"},
				{Op: OpEqual},
				{Op: OpStoreVariable, Text: "same"},
			}},
		),
	})
	assert.Equal(t, StateTerminated, e.Run(ModeRun))
	globals := e.Globals()
	assert.Equal(t, 14.0, globals["x"].Num())
	assert.Equal(t, TrueString, globals["same"].Str())
	_, failed := e.Diagnostic()
	assert.False(t, failed)
}

func TestFatalDiagnosticPushesNothing(t *testing.T) {
	e := newTestEngine(map[string][]Instruction{
		MainModule: assemble(statement{3, []Instruction{
			{Op: OpPushString, Text: "a"},
			{Op: OpPushNumber, Number: 1},
			{Op: OpSubtract},
			{Op: OpStoreVariable, Text: "x"},
		}}),
	})
	assert.Equal(t, StateTerminated, e.Run(ModeRun))
	d, ok := e.Diagnostic()
	require.True(t, ok)
	assert.Equal(t, diagnostics.CannotUseOperatorWithAString, d.Code)
	assert.Equal(t, []string{"-"}, d.Args)
	assert.Equal(t, 3, d.Range.Start.Line)
	assert.Equal(t, 0, e.StackDepth())
	_, assigned := e.Globals()["x"]
	assert.False(t, assigned)

	assert.Equal(t, StateTerminated, e.Step(ModeRun), "terminated engine must not move")
}

func TestArrayIndexWithArrayIsFatal(t *testing.T) {
	e := newTestEngine(map[string][]Instruction{
		MainModule: assemble(
			statement{1, []Instruction{
				{Op: OpPushNumber, Number: 1},
				{Op: OpPushString, Text: "v"},
				{Op: OpStoreArrayElement, Text: "a", Count: 1},
			}},
			statement{2, []Instruction{
				{Op: OpLoadVariable, Text: "a"},
				{Op: OpLoadArrayElement, Text: "b", Count: 1},
				{Op: OpStoreVariable, Text: "x"},
			}},
		),
	})
	e.Run(ModeRun)
	d, ok := e.Diagnostic()
	require.True(t, ok)
	assert.Equal(t, diagnostics.CannotUseAnArrayAsAnIndexToAnotherArray, d.Code)
	assert.Equal(t, `[1: "v"]`, e.Globals()["a"].ToDebuggerString())
}

func TestPauseInDebugAndRunModes(t *testing.T) {
	modules := map[string][]Instruction{
		MainModule: assemble(
			statement{1, []Instruction{call(LibraryProgram, "Pause")}},
			statement{2, []Instruction{{Op: OpPushNumber, Number: 1}, {Op: OpStoreVariable, Text: "x"}}},
		),
	}

	run := newTestEngine(modules)
	assert.Equal(t, StateTerminated, run.Run(ModeRun))
	assert.Equal(t, 1.0, run.Globals()["x"].Num())

	debug := newTestEngine(modules)
	assert.Equal(t, StatePaused, debug.Run(ModeDebug))
	assert.Equal(t, StatePaused, debug.Step(ModeDebug), "paused engine must not move")
	_, assigned := debug.Globals()["x"]
	assert.False(t, assigned)

	assert.Equal(t, StateRunning, debug.Resume())
	assert.Equal(t, StateTerminated, debug.Run(ModeDebug))
	assert.Equal(t, 1.0, debug.Globals()["x"].Num())
}

func TestEndTerminates(t *testing.T) {
	e := newTestEngine(map[string][]Instruction{
		MainModule: assemble(
			statement{1, []Instruction{call(LibraryProgram, "End")}},
			statement{2, []Instruction{{Op: OpPushNumber, Number: 1}, {Op: OpStoreVariable, Text: "x"}}},
		),
	})
	assert.Equal(t, StateTerminated, e.Run(ModeRun))
	assert.Empty(t, e.Globals())
	assert.Empty(t, e.CallStack())
}

func TestInputWaitsForDriver(t *testing.T) {
	e := newTestEngine(map[string][]Instruction{
		MainModule: assemble(statement{1, []Instruction{
			call(LibraryTextWindow, "ReadNumber"),
			{Op: OpStoreVariable, Text: "n"},
		}}),
	})
	assert.ErrorIs(t, e.ProvideInput("1"), ErrNotWaiting)

	assert.Equal(t, StateRunning, e.Run(ModeRun))
	require.True(t, e.WaitingForInput())
	assert.Equal(t, StateRunning, e.Step(ModeRun))
	require.True(t, e.WaitingForInput())

	assert.Error(t, e.ProvideInput("abc"))
	assert.True(t, e.WaitingForInput())
	require.NoError(t, e.ProvideInput(" 42 "))
	assert.False(t, e.WaitingForInput())

	assert.Equal(t, StateTerminated, e.Run(ModeRun))
	assert.Equal(t, 42.0, e.Globals()["n"].Num())
}

func TestSubFramesHaveIndependentLocals(t *testing.T) {
	e := newTestEngine(map[string][]Instruction{
		MainModule: assemble(
			statement{1, []Instruction{{Op: OpPushNumber, Number: 1}, {Op: OpStoreVariable, Text: "x"}}},
			statement{2, []Instruction{{Op: OpCallSub, Text: "Foo"}}},
			statement{3, []Instruction{{Op: OpLoadVariable, Text: "x"}, {Op: OpStoreVariable, Text: "y"}}},
		),
		"Foo": assemble(
			statement{5, []Instruction{{Op: OpPushNumber, Number: 2}, {Op: OpStoreVariable, Text: "x"}}},
			statement{6, []Instruction{call(LibraryProgram, "Pause")}},
		),
	})
	assert.Equal(t, StatePaused, e.Run(ModeDebug))
	stack := e.CallStack()
	require.Len(t, stack, 2)
	assert.Equal(t, "Foo", stack[1].Module)
	assert.Equal(t, 2.0, e.Variables()["x"].Num())

	e.Resume()
	assert.Equal(t, StateTerminated, e.Run(ModeDebug))
	assert.Equal(t, 1.0, e.Globals()["y"].Num())
}

func TestBreakpointsAndStepping(t *testing.T) {
	modules := map[string][]Instruction{
		MainModule: assemble(
			statement{1, []Instruction{{Op: OpPushNumber, Number: 1}, {Op: OpStoreVariable, Text: "a"}}},
			statement{2, []Instruction{{Op: OpPushNumber, Number: 2}, {Op: OpStoreVariable, Text: "b"}}},
			statement{3, []Instruction{{Op: OpPushNumber, Number: 3}, {Op: OpStoreVariable, Text: "c"}}},
		),
	}
	e := newTestEngine(modules, WithBreakpoints(2))
	assert.Equal(t, StateTerminated, e.Run(ModeRun), "breakpoints only apply in debug mode")

	e = newTestEngine(modules, WithBreakpoints(2))
	assert.Equal(t, StatePaused, e.Run(ModeDebug))
	rng, ok := e.CurrentRange()
	require.True(t, ok)
	assert.Equal(t, 2, rng.Start.Line)
	assert.Len(t, e.Globals(), 1)

	assert.Equal(t, StatePaused, e.StepStatement())
	rng, _ = e.CurrentRange()
	assert.Equal(t, 3, rng.Start.Line)
	assert.Len(t, e.Globals(), 2)

	e.ClearBreakpoint(2)
	e.Resume()
	assert.Equal(t, StateTerminated, e.Run(ModeDebug))
	assert.Len(t, e.Globals(), 3)
}

func TestStepAfterPauseStopsAtNextStatement(t *testing.T) {
	e := newTestEngine(map[string][]Instruction{
		MainModule: assemble(
			statement{1, []Instruction{{Op: OpPushNumber, Number: 1}, {Op: OpStoreVariable, Text: "a"}}},
			statement{2, []Instruction{call(LibraryProgram, "Pause")}},
			statement{3, []Instruction{{Op: OpPushNumber, Number: 3}, {Op: OpStoreVariable, Text: "b"}}},
			statement{4, []Instruction{{Op: OpPushNumber, Number: 4}, {Op: OpStoreVariable, Text: "c"}}},
		),
	})
	assert.Equal(t, StatePaused, e.Run(ModeDebug))
	rng, ok := e.CurrentRange()
	require.True(t, ok)
	assert.Equal(t, 2, rng.Start.Line)

	for _, want := range []struct {
		line    int
		globals int
	}{{3, 1}, {4, 2}} {
		assert.Equal(t, StatePaused, e.StepStatement())
		rng, ok = e.CurrentRange()
		require.True(t, ok)
		if rng.Start.Line != want.line || len(e.Globals()) != want.globals {
			t.Fatalf("after step: line %d with %d globals, want line %d with %d",
				rng.Start.Line, len(e.Globals()), want.line, want.globals)
		}
	}
	assert.Equal(t, StateTerminated, e.StepStatement())
	assert.Len(t, e.Globals(), 3)
}

func TestEventsRunBoundHandlers(t *testing.T) {
	e := newTestEngine(map[string][]Instruction{
		MainModule: assemble(
			statement{1, []Instruction{{Op: OpBindEvent, Library: LibraryTimer, Member: "Tick", Text: "OnTick"}}},
			statement{2, []Instruction{{Op: OpPushNumber, Number: 1}, {Op: OpStoreVariable, Text: "x"}}},
		),
		"OnTick": assemble(
			statement{4, []Instruction{{Op: OpPushString, Text: "t"}, {Op: OpStoreVariable, Text: "ran"}}},
		),
	})
	var raised []bool
	e.AddStatementHook(func(e *Engine) {
		raised = append(raised, e.RaiseEvent(LibraryTimer, "Tick"))
	})
	assert.Equal(t, StateTerminated, e.Run(ModeRun))
	// Statement 1 has no binding yet, statement 2 raises the handler and the
	// handler's own statement is refused as re-entry. Statement 2 is not
	// re-checked once the handler returns.
	assert.Equal(t, []bool{false, true, false}, raised)
	assert.Equal(t, 1.0, e.Globals()["x"].Num())
}

func TestTerminateAndCancellation(t *testing.T) {
	loop := map[string][]Instruction{
		MainModule: assemble(statement{1, []Instruction{{Op: OpJump, Target: 0}}}),
	}
	e := newTestEngine(loop)
	for i := 0; i < 10; i++ {
		e.Step(ModeRun)
	}
	e.Terminate()
	assert.Equal(t, StateTerminated, e.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e = newTestEngine(loop)
	assert.Equal(t, StateTerminated, e.RunContext(ctx, ModeRun))
}

func TestEngineLogsFrames(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := newTestEngine(map[string][]Instruction{
		MainModule: assemble(statement{1, []Instruction{{Op: OpCallSub, Text: "Foo"}}}),
		"Foo":      nil,
	}, WithLogger(logger))
	e.Run(ModeRun)
	out := buf.String()
	assert.True(t, strings.Contains(out, "push frame"), out)
	assert.True(t, strings.Contains(out, "module=Foo"), out)
	assert.True(t, strings.Contains(out, "to=Terminated"), out)
}
