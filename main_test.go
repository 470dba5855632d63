package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, ctx context.Context, stdin string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{stdin: strings.NewReader(stdin), stdout: &stdout, stderr: &stderr}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const greet = `TextWindow.Write("Name? ")
name = TextWindow.Read()
TextWindow.WriteLine("Hi " + name)
`

func TestRunSource(t *testing.T) {
	path := writeFile(t, "greet.sb", greet)
	for _, args := range [][]string{{"run", path}, {path}} {
		res := execute(t, context.Background(), "Bob\n", args...)
		require.NoError(t, res.err, res.stderr)
		assert.Equal(t, "Name? Hi Bob\n", res.stdout)
	}
}

func TestRunReportsCompileErrors(t *testing.T) {
	path := writeFile(t, "bad.sb", "x = 1\ny = TextWindow\n")
	res := execute(t, context.Background(), "", "run", path)
	require.Error(t, res.err)
	assert.True(t, errors.Is(res.err, errCompile))
	assert.Contains(t, res.stderr, path+":2:5: UnexpectedVoid_ExpectingValue")
	assert.Empty(t, res.stdout)
}

func TestRunReportsRuntimeErrors(t *testing.T) {
	path := writeFile(t, "fatal.sb", "TextWindow.WriteLine(1)\nx = \"a\" - 1\nTextWindow.WriteLine(2)\n")
	res := execute(t, context.Background(), "", "run", path)
	assert.True(t, errors.Is(res.err, errRuntime))
	assert.Equal(t, "1\n", res.stdout)
	assert.Contains(t, res.stderr, "CannotUseOperatorWithAString")
}

func TestRunShebangKeepsLineNumbers(t *testing.T) {
	path := writeFile(t, "script.sb", "#!/usr/bin/env sbasic\nx = TextWindow\n")
	res := execute(t, context.Background(), "", "check", path)
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, ":2:5:")
}

func TestBuildAndRunImage(t *testing.T) {
	path := writeFile(t, "greet.sb", greet)
	out := filepath.Join(filepath.Dir(path), "greet.sbi")

	res := execute(t, context.Background(), "", "build", path, "-o", out)
	require.NoError(t, res.err, res.stderr)
	_, err := os.Stat(out)
	require.NoError(t, err)

	res = execute(t, context.Background(), "Ann\n", "run", out)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "Name? Hi Ann\n", res.stdout)
}

func TestBuildDefaultOutput(t *testing.T) {
	path := writeFile(t, "prog.sb", "x = 1\n")
	res := execute(t, context.Background(), "", "build", path)
	require.NoError(t, res.err, res.stderr)
	_, err := os.Stat(strings.TrimSuffix(path, ".sb") + ".sbi")
	assert.NoError(t, err)
}

func TestRunCorruptImage(t *testing.T) {
	path := writeFile(t, "junk.sbi", "SBIM garbage")
	res := execute(t, context.Background(), "", "run", path)
	assert.Error(t, res.err)
}

func TestCheck(t *testing.T) {
	ok := writeFile(t, "ok.sb", "x = 1\n")
	res := execute(t, context.Background(), "", "check", ok)
	require.NoError(t, res.err)
	assert.Equal(t, ok+": ok\n", res.stdout)

	bad := writeFile(t, "bad.sb", "TextWindo.WriteLine(1)\n")
	res = execute(t, context.Background(), "", "check", bad)
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "did you mean TextWindow?")
}

func TestCheckWatchStopsWithContext(t *testing.T) {
	path := writeFile(t, "ok.sb", "x = 1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := execute(t, ctx, "", "check", "--watch", path)
	require.NoError(t, res.err)
	assert.Equal(t, path+": ok\n", res.stdout)
}

func TestREPL(t *testing.T) {
	input := strings.Join([]string{
		"x = 2",
		"If x = 2 Then",
		"TextWindow.WriteLine(x * 21)",
		"EndIf",
		"y = Foo(",
		"TextWindow.WriteLine(x)",
		"z = \"a\" - 1",
		"TextWindow.WriteLine(\"still here\")",
	}, "\n") + "\n"
	res := execute(t, context.Background(), input, "repl")
	require.NoError(t, res.err)
	assert.Equal(t, "42\n2\nstill here\n", res.stdout)
	assert.Contains(t, res.stderr, "UnexpectedEOL_ExpectingExpression")
	assert.Contains(t, res.stderr, "CannotUseOperatorWithAString")
}

func TestREPLLogsFailedChunks(t *testing.T) {
	input := "z = \"a\" - 1\nTextWindow.WriteLine(\"next\")\n"
	res := execute(t, context.Background(), input, "--verbose", "repl")
	require.NoError(t, res.err)
	assert.Equal(t, "next\n", res.stdout)
	assert.Contains(t, res.stderr, "CannotUseOperatorWithAString")
	assert.Contains(t, res.stderr, "chunk failed")
	assert.Contains(t, res.stderr, errRuntime.Error())
}

func TestREPLMisnestedBlockIsReported(t *testing.T) {
	input := "Sub A\nWhile x\nEndSub\nTextWindow.WriteLine(\"after\")\n"
	res := execute(t, context.Background(), input, "repl")
	require.NoError(t, res.err)
	assert.Equal(t, "after\n", res.stdout)
	assert.Contains(t, res.stderr, "UnexpectedEOF_ExpectingCommand")
}

func TestDebugger(t *testing.T) {
	path := writeFile(t, "prog.sb", "a = 1\nb = 2\nc = 3\nTextWindow.WriteLine(a + b + c)\n")
	res := execute(t, context.Background(), "step\nvars\nbreak 4\ncontinue\nwhere\ncontinue\n", "debug", path)
	require.NoError(t, res.err, res.stderr)
	out := res.stdout
	assert.Contains(t, out, "1:\ta = 1\n")
	assert.Contains(t, out, "2:\tb = 2\n")
	assert.Contains(t, out, "a = 1\n")
	assert.Contains(t, out, "breakpoint at line 4\n")
	assert.Contains(t, out, "4:\tTextWindow.WriteLine(a + b + c)\n")
	assert.Contains(t, out, "#0 <Main> at 4:1\n")
	assert.True(t, strings.HasSuffix(out, "6\n"), out)
}

func TestDebuggerEntryStopIsOneShot(t *testing.T) {
	path := writeFile(t, "loop.sb", "For i = 1 To 3\nTextWindow.WriteLine(i)\nEndFor\n")
	res := execute(t, context.Background(), "continue\n", "debug", path)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, 1, strings.Count(res.stdout, "1:\tFor i = 1 To 3\n"), res.stdout)
	assert.True(t, strings.HasSuffix(res.stdout, "1\n2\n3\n"), res.stdout)

	// Breakpoints the user asked for stay.
	res = execute(t, context.Background(), "c\nc\nc\nc\n", "debug", "--break", "2", path)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, 3, strings.Count(res.stdout, "2:\tTextWindow.WriteLine(i)\n"), res.stdout)
	assert.True(t, strings.HasSuffix(res.stdout, "3\n"), res.stdout)
}

func TestDebuggerQuit(t *testing.T) {
	path := writeFile(t, "prog.sb", "TextWindow.WriteLine(1)\n")
	res := execute(t, context.Background(), "quit\n", "debug", path)
	require.NoError(t, res.err)
	assert.NotContains(t, res.stdout, "1\n")
}

func TestConfigAndVerbose(t *testing.T) {
	path := writeFile(t, "prog.sb", "x = 1\n")
	cfg := writeFile(t, "settings.yaml", "verbose: true\n")
	res := execute(t, context.Background(), "", "--config", cfg, "run", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "compiled source")
	assert.NotContains(t, res.stderr, "time=")

	res = execute(t, context.Background(), "", "--config", cfg, "--verbose=false", "run", path)
	require.NoError(t, res.err)
	assert.Empty(t, res.stderr)

	bad := writeFile(t, "bad.yaml", "mode: sideways\n")
	res = execute(t, context.Background(), "", "--config", bad, "run", path)
	assert.Error(t, res.err)
}
