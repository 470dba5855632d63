package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/sergev/sbasic/compiler"
	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/image"
	"github.com/sergev/sbasic/lang"
	"github.com/sergev/sbasic/runtime"
)

var (
	errCompile = errors.New("compilation failed")
	errRuntime = errors.New("program stopped with an error")
)

// lineReader supplies lines typed by the user.
type lineReader interface {
	ReadLine(prompt string) (string, error)
}

type linerReader struct {
	state *liner.State
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	return r.state.Prompt(prompt)
}

func (r *linerReader) AppendHistory(item string) {
	r.state.AppendHistory(item)
}

type bufferedReader struct {
	r *bufio.Reader
}

func (r *bufferedReader) ReadLine(string) (string, error) {
	line, err := r.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// openInput returns a liner-backed reader for terminals and a plain one
// otherwise. The history file, if any, is loaded and saved on close.
func (a *app) openInput(history string) (lineReader, func()) {
	if !isInteractive(a.stdin) {
		return &bufferedReader{r: bufio.NewReader(a.stdin)}, func() {}
	}
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	if history != "" {
		if f, err := os.Open(history); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
	}
	return &linerReader{state: state}, func() {
		if history != "" {
			if f, err := os.Create(history); err == nil {
				state.WriteHistory(f)
				f.Close()
			}
		}
		state.Close()
	}
}

func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// lineTracker remembers the unfinished last line written, so that it can
// serve as the prompt when the program reads input.
type lineTracker struct {
	w    io.Writer
	tail []byte
}

func (t *lineTracker) Write(p []byte) (int, error) {
	if i := bytes.LastIndexByte(p, '\n'); i >= 0 {
		t.tail = append(t.tail[:0], p[i+1:]...)
	} else {
		t.tail = append(t.tail, p...)
	}
	return t.w.Write(p)
}

func (t *lineTracker) takeTail() string {
	s := string(t.tail)
	t.tail = t.tail[:0]
	return s
}

// session drives one engine and answers its input requests.
type session struct {
	ctx    context.Context
	engine *lang.Engine
	in     lineReader
	out    *lineTracker
}

func (a *app) newSession(ctx context.Context, program *lang.Program, in lineReader, opts ...runtime.Option) *session {
	out := &lineTracker{w: a.stdout}
	opts = append([]runtime.Option{runtime.WithOutput(out), runtime.WithLogger(a.logger)}, opts...)
	return &session{
		ctx:    ctx,
		engine: runtime.NewEngine(program, opts...),
		in:     in,
		out:    out,
	}
}

// run executes until the program terminates or pauses.
func (s *session) run(mode lang.Mode) (lang.State, error) {
	for {
		state := s.engine.RunContext(s.ctx, mode)
		if !s.engine.WaitingForInput() {
			return state, nil
		}
		if err := s.answer(); err != nil {
			return s.engine.State(), err
		}
	}
}

// step executes up to the next statement boundary.
func (s *session) step() (lang.State, error) {
	for {
		state := s.engine.StepStatement()
		if !s.engine.WaitingForInput() {
			return state, nil
		}
		if err := s.answer(); err != nil {
			return s.engine.State(), err
		}
	}
}

func (s *session) answer() error {
	line, err := s.in.ReadLine(s.out.takeTail())
	if err != nil {
		s.engine.Terminate()
		return fmt.Errorf("read input: %w", err)
	}
	if err := s.engine.ProvideInput(line); err != nil {
		s.engine.Logger().Debug("input rejected", "err", err)
	}
	return nil
}

// finish reports a fatal runtime diagnostic, if there was one.
func (s *session) finish(a *app, name string) error {
	d, ok := s.engine.Diagnostic()
	if !ok {
		return nil
	}
	a.reportDiagnostics(name, []diagnostics.Diagnostic{d})
	return errRuntime
}

func (a *app) reportDiagnostics(name string, diags []diagnostics.Diagnostic) {
	for _, d := range diags {
		if name != "" {
			fmt.Fprintf(a.stderr, "%s:", name)
		}
		fmt.Fprintf(a.stderr, "%s: %s: %s\n", d.Range.Start, d.Code, d.Message())
		if d.Hint != "" {
			fmt.Fprintf(a.stderr, "\tdid you mean %s?\n", d.Hint)
		}
	}
}

// load reads a program from source text or an image. Source is nil for
// images.
func (a *app) load(path string) (*lang.Program, []byte, error) {
	if filepath.Ext(path) == image.Extension {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		img, err := image.Read(bufio.NewReader(f))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		a.logger.Debug("loaded image", "path", path, "version", img.Version)
		return img.Program, nil, nil
	}
	src, err := runtime.ReadSource(path)
	if err != nil {
		return nil, nil, err
	}
	program, err := a.compile(path, src)
	if err != nil {
		return nil, nil, err
	}
	return program, src, nil
}

func (a *app) compile(path string, src []byte) (*lang.Program, error) {
	program, err := compiler.CompileProgram(string(src), compiler.WithLogger(a.logger))
	if err != nil {
		diags := compiler.Diagnostics(err)
		a.reportDiagnostics(path, diags)
		return nil, fmt.Errorf("%s: %w (%d diagnostics)", path, errCompile, len(diags))
	}
	return program, nil
}
