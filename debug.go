package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sergev/sbasic/lang"
	"github.com/sergev/sbasic/runtime"
)

const debugPrompt = "(sbdb) "

const debugHelp = `Commands:
  s, step           run to the next statement
  c, continue       run to the next breakpoint or pause
  v, vars           show variables of the current sub
  bt, where         show the call stack
  b, break LINE     set a breakpoint
  d, delete LINE    remove a breakpoint
  q, quit           stop the program
`

type debugger struct {
	s     *session
	lines []string // source lines, empty for images
	out   io.Writer
	entry int // one-shot breakpoint on the first statement, or 0
}

func (a *app) debug(ctx context.Context, path string) error {
	program, src, err := a.load(path)
	if err != nil {
		return err
	}
	in, closeIn := a.openInput("")
	defer closeIn()

	breakpoints := a.cfg.Breakpoints
	entry := 0
	if len(breakpoints) == 0 {
		// Stop before the first statement.
		if code := program.Main(); len(code) > 0 {
			entry = code[0].Range.Start.Line
			breakpoints = []int{entry}
		}
	}
	d := &debugger{
		s:     a.newSession(ctx, program, in, runtime.WithBreakpoints(breakpoints...)),
		out:   a.stdout,
		entry: entry,
	}
	if src != nil {
		d.lines = strings.Split(string(src), "\n")
	}
	if err := d.loop(); err != nil {
		return err
	}
	return d.s.finish(a, path)
}

func (d *debugger) loop() error {
	state, err := d.s.run(lang.ModeDebug)
	if d.entry > 0 {
		d.s.engine.ClearBreakpoint(d.entry)
	}
	for err == nil && state == lang.StatePaused {
		d.where()
		line, rerr := d.s.in.ReadLine(debugPrompt)
		if rerr != nil {
			d.s.engine.Terminate()
			if errors.Is(rerr, io.EOF) {
				return nil
			}
			return rerr
		}
		state, err = d.command(strings.Fields(line))
	}
	return err
}

func (d *debugger) command(fields []string) (lang.State, error) {
	e := d.s.engine
	if len(fields) == 0 {
		return e.State(), nil
	}
	switch fields[0] {
	case "s", "step":
		return d.s.step()
	case "c", "continue":
		e.Resume()
		return d.s.run(lang.ModeDebug)
	case "v", "vars":
		d.vars()
	case "bt", "where":
		for i, fr := range e.CallStack() {
			fmt.Fprintf(d.out, "#%d %s at %s\n", i, fr.Module, fr.Range.Start)
		}
	case "b", "break":
		if line, ok := d.lineArg(fields); ok {
			e.SetBreakpoint(line)
			fmt.Fprintf(d.out, "breakpoint at line %d\n", line)
		}
	case "d", "delete":
		if line, ok := d.lineArg(fields); ok {
			e.ClearBreakpoint(line)
		}
	case "q", "quit":
		e.Terminate()
	case "h", "help":
		fmt.Fprint(d.out, debugHelp)
	default:
		fmt.Fprintf(d.out, "unknown command %q, try help\n", fields[0])
	}
	return e.State(), nil
}

func (d *debugger) lineArg(fields []string) (int, bool) {
	if len(fields) != 2 {
		fmt.Fprintf(d.out, "usage: %s LINE\n", fields[0])
		return 0, false
	}
	line, err := strconv.Atoi(fields[1])
	if err != nil || line < 1 {
		fmt.Fprintf(d.out, "bad line number %q\n", fields[1])
		return 0, false
	}
	return line, true
}

// where prints the location of the next statement.
func (d *debugger) where() {
	rng, ok := d.s.engine.CurrentRange()
	if !ok {
		return
	}
	line := rng.Start.Line
	if line >= 1 && line <= len(d.lines) {
		fmt.Fprintf(d.out, "%d:\t%s\n", line, strings.TrimSpace(d.lines[line-1]))
		return
	}
	fmt.Fprintf(d.out, "at %s\n", rng.Start)
}

func (d *debugger) vars() {
	vars := d.s.engine.Variables()
	names := make([]string, 0, len(vars))
	for name := range vars {
		if !strings.HasPrefix(name, lang.HiddenPrefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(d.out, "%s = %s\n", name, vars[name].ToDebuggerString())
	}
}
