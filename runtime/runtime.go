// Package runtime provides the SmallBasic libraries and assembles engines
// with them installed.
package runtime

import (
	"bytes"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sergev/sbasic/lang"
)

type settings struct {
	output io.Writer
	now    func() time.Time
	random *rand.Rand
	engine []lang.Option
}

func defaultSettings() *settings {
	return &settings{
		output: io.Discard,
		now:    time.Now,
		random: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Option configures the libraries and the engine built by NewEngine.
type Option func(*settings)

// WithOutput directs TextWindow output to w.
func WithOutput(w io.Writer) Option {
	return func(s *settings) { s.output = w }
}

// WithClock replaces the wall clock used by Clock and Timer.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithRandom sets the source for Math.GetRandomNumber.
func WithRandom(r *rand.Rand) Option {
	return func(s *settings) { s.random = r }
}

// WithLogger passes a logger to the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.engine = append(s.engine, lang.WithLogger(logger)) }
}

// WithVariables seeds main-module variables, e.g. globals kept by a REPL.
func WithVariables(vars map[string]lang.Value) Option {
	return func(s *settings) { s.engine = append(s.engine, lang.WithVariables(vars)) }
}

// WithBreakpoints sets initial breakpoint lines for Debug runs.
func WithBreakpoints(lines ...int) Option {
	return func(s *settings) { s.engine = append(s.engine, lang.WithBreakpoints(lines...)) }
}

// NewEngine constructs an engine for program with fresh library instances.
func NewEngine(program *lang.Program, opts ...Option) *lang.Engine {
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	engineOpts := make([]lang.Option, 0, len(s.engine)+int(lang.LibraryCount))
	for _, lib := range newInstances(s) {
		engineOpts = append(engineOpts, lang.WithLibrary(lib))
	}
	engineOpts = append(engineOpts, s.engine...)
	return lang.NewEngine(program, engineOpts...)
}

// ReadSource loads a program file. A leading #! line is blanked so that
// diagnostics keep their line numbers.
func ReadSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, []byte("#!")) {
		if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
			return data[idx:], nil
		}
		return []byte{}, nil
	}
	return data, nil
}
