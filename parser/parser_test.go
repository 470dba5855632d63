package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergev/sbasic/diagnostics"
)

func mustParse(t *testing.T, src string) *ParseTree {
	t.Helper()
	tree, diags := ParseString(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return tree
}

func codes(diags []diagnostics.Diagnostic) []diagnostics.ErrorCode {
	out := make([]diagnostics.ErrorCode, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func TestParseAssignmentAndPrecedence(t *testing.T) {
	tree := mustParse(t, "x = 1 + 2 * -3 = 4 Or y And z\n")
	require.Len(t, tree.Main, 1)
	assign, ok := tree.Main[0].(*AssignmentStatement)
	if !ok {
		t.Fatalf("expected AssignmentStatement, got %T", tree.Main[0])
	}
	target, ok := assign.Command.Target.(*IdentifierExpr)
	require.True(t, ok)
	assert.Equal(t, "x", target.Name.Text)

	or, ok := assign.Command.Value.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, TokenOr, or.Operator.Kind)

	eq, ok := or.Left.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, TokenEqual, eq.Operator.Kind)

	add, ok := eq.Left.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, TokenPlus, add.Operator.Kind)

	mul, ok := add.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, TokenMultiply, mul.Operator.Kind)
	_, ok = mul.Right.(*UnaryExpr)
	assert.True(t, ok, "expected unary minus, got %T", mul.Right)

	and, ok := or.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, TokenAnd, and.Operator.Kind)
}

func TestParsePostfixChains(t *testing.T) {
	tree := mustParse(t, "TextWindow.WriteLine(a[1][\"k\"], Math.Max(1, 2))")
	require.Len(t, tree.Main, 1)
	stmt, ok := tree.Main[0].(*ExpressionStatement)
	require.True(t, ok)

	call, ok := stmt.Command.Expr.(*InvocationExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 2)

	member, ok := call.Base.(*ObjectAccessExpr)
	require.True(t, ok)
	assert.Equal(t, "WriteLine", member.Member.Text)

	outer, ok := call.Args[0].(*ArrayAccessExpr)
	require.True(t, ok)
	inner, ok := outer.Base.(*ArrayAccessExpr)
	require.True(t, ok)
	_, ok = inner.Base.(*IdentifierExpr)
	assert.True(t, ok)
	str, ok := outer.Index.(*StringLiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "k", str.Value())
}

func TestParseBlocks(t *testing.T) {
	src := `
If a > 1 Then
  x = 1
ElseIf a < 0 Then
  x = 2
Else
  While x < 10
    x = x + 1
  EndWhile
EndIf
For i = 1 To 10 Step 2
  GoTo done
EndFor
done:
Sub Foo
  y = 1
EndSub
Foo()
`
	tree := mustParse(t, src)
	require.Len(t, tree.Main, 4)
	require.Len(t, tree.Subs, 1)
	assert.Equal(t, "Foo", tree.Subs[0].Name())
	require.NotNil(t, tree.Subs[0].EndSub)

	ifStmt, ok := tree.Main[0].(*IfStatement)
	require.True(t, ok)
	assert.Len(t, ifStmt.Body, 1)
	assert.Len(t, ifStmt.ElseIfs, 1)
	require.NotNil(t, ifStmt.Else)
	require.Len(t, ifStmt.Else.Body, 1)
	_, ok = ifStmt.Else.Body[0].(*WhileStatement)
	assert.True(t, ok)
	assert.NotNil(t, ifStmt.EndIf)

	forStmt, ok := tree.Main[1].(*ForStatement)
	require.True(t, ok)
	assert.Equal(t, "i", forStmt.For.Identifier.Text)
	assert.NotNil(t, forStmt.For.StepValue)
	require.Len(t, forStmt.Body, 1)
	_, ok = forStmt.Body[0].(*GoToStatement)
	assert.True(t, ok)

	label, ok := tree.Main[2].(*LabelStatement)
	require.True(t, ok)
	assert.Equal(t, "done", label.Command.Label.Text)

	_, ok = tree.Main[3].(*ExpressionStatement)
	assert.True(t, ok)
}

func TestParseDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []diagnostics.ErrorCode
	}{
		{"illegal character", "x = 1 $ 2", []diagnostics.ErrorCode{diagnostics.UnrecognizedCharacter}},
		{"unterminated string", "x = \"abc", []diagnostics.ErrorCode{diagnostics.UnterminatedStringLiteral}},
		{"missing then", "If x\nEndIf", []diagnostics.ErrorCode{diagnostics.UnexpectedEOLExpectingToken}},
		{"wrong token", "For i = 1 Step 2\nEndFor", []diagnostics.ErrorCode{diagnostics.UnexpectedTokenExpectingToken}},
		{"missing expression", "x =", []diagnostics.ErrorCode{diagnostics.UnexpectedEOLExpectingExpression}},
		{"bad expression", "x = )", []diagnostics.ErrorCode{diagnostics.UnexpectedTokenExpectingExpression}},
		{"missing identifier", "GoTo", []diagnostics.ErrorCode{diagnostics.UnexpectedEOLExpectingIdentifier}},
		{"bad identifier", "Sub 1", []diagnostics.ErrorCode{diagnostics.UnexpectedTokenExpectingIdentifier}},
		{"trailing tokens", "x = 1 2", []diagnostics.ErrorCode{diagnostics.UnexpectedTokenExpectingEOL}},
		{"stray terminator", "EndWhile", []diagnostics.ErrorCode{diagnostics.UnexpectedCommandExpectingCommand}},
		{"missing terminator", "While 1\nx = 1", []diagnostics.ErrorCode{diagnostics.UnexpectedEOFExpectingCommand}},
		{"nested sub", "If 1 Then\nSub A\nEndSub\nEndIf", []diagnostics.ErrorCode{diagnostics.CannotDefineSubInsideBlock}},
		{"one per line", "x = $ ) (\ny = ) )", []diagnostics.ErrorCode{
			diagnostics.UnrecognizedCharacter,
			diagnostics.UnexpectedTokenExpectingExpression,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := ParseString(tt.src)
			assert.Equal(t, tt.want, codes(diags))
		})
	}
}

func TestParseStrayTerminatorArgs(t *testing.T) {
	_, diags := ParseString("While 1\nEndIf\nEndWhile")
	require.Len(t, diags, 1)
	assert.Equal(t, []string{"EndIf", "EndWhile"}, diags[0].Args)

	_, diags = ParseString("EndFor")
	require.Len(t, diags, 1)
	assert.Equal(t, []string{"EndFor", "For"}, diags[0].Args)
}

func TestParseMissingTerminatorInsideBlock(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		args  [][]string
		lines []int
	}{
		{"while in sub", "Sub A\nWhile x < 1\nEndSub\n", [][]string{{"EndWhile"}}, []int{2}},
		{"for in if", "If x Then\nFor i = 1 To 2\nEndIf\n", [][]string{{"EndFor"}}, []int{2}},
		{"while before else", "If x Then\nWhile y\nElse\nz = 1\nEndIf\n", [][]string{{"EndWhile"}}, []int{2}},
		{"two levels", "Sub A\nWhile x\nFor i = 1 To 2\nEndSub\n", [][]string{{"EndFor"}, {"EndWhile"}}, []int{3, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, diags := ParseString(tt.src)
			assert.True(t, tree.Misnested)
			require.Len(t, diags, len(tt.args))
			for i, d := range diags {
				assert.Equal(t, diagnostics.UnexpectedEOFExpectingCommand, d.Code)
				assert.Equal(t, tt.args[i], d.Args)
				assert.Equal(t, tt.lines[i], d.Range.Start.Line)
			}
		})
	}

	tree, _ := ParseString("Sub A\nWhile x < 1\nEndSub\ny = 1\n")
	require.Len(t, tree.Subs, 1)
	assert.NotNil(t, tree.Subs[0].EndSub)
	assert.Len(t, tree.Main, 1)

	tree, _ = ParseString("Sub A\nWhile x < 1\n")
	assert.False(t, tree.Misnested)
}

func TestParseRecoveryKeepsLaterStatements(t *testing.T) {
	tree, diags := ParseString("x = (1\ny = 2\nz = 3 +\nw = 4")
	require.Len(t, diags, 2)
	require.Len(t, tree.Main, 4)
	_, ok := tree.Main[0].(*ErrorStatement)
	assert.True(t, ok)
	_, ok = tree.Main[1].(*AssignmentStatement)
	assert.True(t, ok)
	_, ok = tree.Main[2].(*ErrorStatement)
	assert.True(t, ok)
	_, ok = tree.Main[3].(*AssignmentStatement)
	assert.True(t, ok)
}

// Malformed input must always terminate with a bounded number of statements.
func TestParseProgress(t *testing.T) {
	inputs := []string{
		"EndIf EndIf EndIf",
		"If If If\nElse\nElse\nEndIf\nEndIf",
		")))(((\n]]]\n...",
		"Sub\nSub A\nSub B\nEndSub",
		"For For = To Step\nEndFor EndFor",
		"a.b.c.(d)[e](f",
		"\n\n\n",
	}
	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			tokens := Tokenize(src)
			tree, _ := Parse(tokens)
			total := len(tree.Main)
			for _, sub := range tree.Subs {
				total += len(sub.Body) + 1
			}
			assert.LessOrEqual(t, total, len(tokens))
		})
	}
}
