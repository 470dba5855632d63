package binder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/lang"
	"github.com/sergev/sbasic/parser"
)

func bind(t *testing.T, src string) (Modules, []diagnostics.Diagnostic) {
	t.Helper()
	tree, diags := parser.ParseString(src)
	require.Empty(t, diags, "unexpected parse diagnostics")
	return Bind(tree)
}

func mustBind(t *testing.T, src string) Modules {
	t.Helper()
	modules, diags := bind(t, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return modules
}

func TestIdentifierResolution(t *testing.T) {
	modules := mustBind(t, "TextWindow.WriteLine(x)\nFoo()\nSub Foo\nEndSub\n")
	main := modules[lang.MainModule]
	require.Len(t, main, 2)

	call, ok := main[0].(*Invocation).Call.(*LibraryMethodInvocation)
	require.True(t, ok)
	assert.Equal(t, lang.LibraryTextWindow, call.Library)
	assert.Equal(t, "WriteLine", call.Name)
	require.Len(t, call.Args, 1)
	assert.Equal(t, "x", call.Args[0].(*Variable).Name)

	sub, ok := main[1].(*Invocation).Call.(*SubModuleInvocation)
	require.True(t, ok)
	assert.Equal(t, "Foo", sub.Name)

	require.Contains(t, modules, "Foo")
	assert.Empty(t, modules["Foo"])
}

func TestLibraryTakesPrecedenceOverSubModule(t *testing.T) {
	modules := mustBind(t, "TextWindow.WriteLine(1)\nSub TextWindow\nEndSub\n")
	_, ok := modules[lang.MainModule][0].(*Invocation).Call.(*LibraryMethodInvocation)
	assert.True(t, ok)
}

func TestDuplicateSubModule(t *testing.T) {
	modules, diags := bind(t, "Sub A\nx = 1\nEndSub\nSub A\nEndSub\n")
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.TwoSubModulesWithTheSameName, diags[0].Code)
	assert.Equal(t, []string{"A"}, diags[0].Args)
	assert.Equal(t, 4, diags[0].Range.Start.Line)
	assert.Len(t, modules, 2)
	assert.Len(t, modules["A"], 1, "the first declaration wins")
}

func TestArgumentCounts(t *testing.T) {
	_, diags := bind(t, "Sub Foo\nEndSub\nFoo(1)\n")
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.UnexpectedArgumentsCount, diags[0].Code)
	assert.Equal(t, []string{"0", "1"}, diags[0].Args)

	_, diags = bind(t, "TextWindow.WriteLine()\n")
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.UnexpectedArgumentsCount, diags[0].Code)
	assert.Equal(t, []string{"1", "0"}, diags[0].Args)
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want diagnostics.ErrorCode
		args []string
		hint string
	}{
		{"void method as value", "x = TextWindow.Clear()\n", diagnostics.UnexpectedVoidExpectingValue, nil, ""},
		{"library as value", "x = TextWindow\n", diagnostics.UnexpectedVoidExpectingValue, nil, ""},
		{"sub as value", "x = Foo\nSub Foo\nEndSub\n", diagnostics.UnexpectedVoidExpectingValue, nil, ""},
		{"sub call as value", "x = Foo()\nSub Foo\nEndSub\n", diagnostics.UnexpectedVoidExpectingValue, nil, ""},
		{"property without getter", "x = Timer.Interval\n", diagnostics.UnexpectedVoidExpectingValue, nil, ""},
		{"method without call", "x = Math.Abs\n", diagnostics.UnexpectedVoidExpectingValue, nil, ""},
		{"event as value", "x = Timer.Tick\n", diagnostics.UnexpectedVoidExpectingValue, nil, ""},
		{"missing member", "TextWindow.WritLine(1)\n", diagnostics.LibraryMemberNotFound, []string{"TextWindow", "WritLine"}, "WriteLine"},
		{"misspelled library", "TextWindo.WriteLine(1)\n", diagnostics.UnsupportedDotBaseExpression, nil, "TextWindow"},
		{"call of variable", "x()\n", diagnostics.UnsupportedCallBaseExpression, nil, ""},
		{"index of property", "x = Clock.Year[1]\n", diagnostics.UnsupportedArrayBaseExpression, nil, ""},
		{"property without setter", "Clock.Year = 1\n", diagnostics.PropertyHasNoSetter, nil, ""},
		{"assign to library", "TextWindow = 1\n", diagnostics.ValueIsNotAssignable, nil, ""},
		{"assign to call", "Math.Abs(1) = 2\n", diagnostics.ValueIsNotAssignable, nil, ""},
		{"for over library", "For Clock = 1 To 2\nEndFor\n", diagnostics.ValueIsNotAssignable, nil, ""},
		{"event handler not a sub", "Timer.Tick = 5\n", diagnostics.UnsupportedEventHandler, nil, ""},
		{"bare variable", "x\n", diagnostics.UnassignedExpressionStatement, nil, ""},
		{"bare arithmetic", "1 + 2\n", diagnostics.UnassignedExpressionStatement, nil, ""},
		{"duplicate label", "a:\na:\n", diagnostics.TwoLabelsWithTheSameName, []string{"a"}, ""},
		{"undefined label", "GoTo b\n", diagnostics.GoToUndefinedLabel, []string{"b"}, ""},
		{"label of other module", "GoTo a\nSub S\na:\nEndSub\n", diagnostics.GoToUndefinedLabel, []string{"a"}, ""},
		{"huge number", "x = " + strings.Repeat("9", 400) + "\n", diagnostics.ValueIsNotANumber, []string{strings.Repeat("9", 400)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modules, diags := bind(t, tt.src)
			require.Len(t, diags, 1, "diagnostics: %v", diags)
			assert.Equal(t, tt.want, diags[0].Code)
			if tt.args != nil {
				assert.Equal(t, tt.args, diags[0].Args)
			}
			assert.Equal(t, tt.hint, diags[0].Hint)
			assert.True(t, modules.HasErrors(), "a diagnostic must leave an error node behind")
		})
	}
}

func TestValidProgramsHaveNoErrors(t *testing.T) {
	srcs := []string{
		"x = 1 + 2 * 3\n",
		"a[1][\"k\"] = TextWindow.ReadNumber()\n",
		"TextWindow.Title = \"t\"\nx = TextWindow.Title\n",
		"Timer.Tick = OnTick\nTimer.Interval = 100\nSub OnTick\nTextWindow.WriteLine(Clock.Second)\nEndSub\n",
		"For i = 1 To 10 Step 2\nIf i = 3 Then\nGoTo done\nElseIf i > 5 Then\nx = i\nElse\nx = 0\nEndIf\nEndFor\ndone:\n",
		"While x < 3 And (y <> 2 Or z)\nx = x + 1\nEndWhile\n",
		"Stack.PushValue(\"s\", -x)\nv = Stack.PopValue(\"s\")\n",
	}
	for _, src := range srcs {
		modules := mustBind(t, src)
		assert.False(t, modules.HasErrors(), src)
	}
}

func TestHasErrorsFoldsIntoParents(t *testing.T) {
	modules, diags := bind(t, "While 1\nIf 2 Then\nx = TextWindow\nEndIf\nEndWhile\ny = 1\n")
	require.Len(t, diags, 1)
	main := modules[lang.MainModule]
	require.Len(t, main, 2)
	assert.True(t, main[0].HasErrors())
	assert.True(t, main[0].(*While).Body[0].HasErrors())
	assert.False(t, main[1].HasErrors())
}

func TestArrayAccessFlattens(t *testing.T) {
	modules := mustBind(t, "a[1][2] = b[x][y][z]\n")
	assign := modules[lang.MainModule][0].(*ArrayAssignment)
	assert.Equal(t, "a", assign.Target.Name)
	assert.Len(t, assign.Target.Indices, 2)
	value := assign.Value.(*ArrayAccess)
	assert.Equal(t, "b", value.Name)
	require.Len(t, value.Indices, 3)
	assert.Equal(t, "z", value.Indices[2].(*Variable).Name)
}

func TestEventAssignment(t *testing.T) {
	modules := mustBind(t, "Timer.Tick = OnTick\nSub OnTick\nEndSub\n")
	event := modules[lang.MainModule][0].(*EventAssignment)
	assert.Equal(t, lang.LibraryTimer, event.Library)
	assert.Equal(t, "Tick", event.Event)
	assert.Equal(t, "OnTick", event.Handler)
}

func TestClosestMatch(t *testing.T) {
	candidates := []string{"WriteLine", "Write", "Read", "ReadNumber", "Clear"}
	assert.Equal(t, "WriteLine", closestMatch("writeline", candidates))
	assert.Equal(t, "Clear", closestMatch("Claer", candidates))
	assert.Equal(t, "", closestMatch("Something", candidates))
	assert.Equal(t, "", closestMatch("x", nil))
}
