package runtime

import (
	"github.com/sergev/sbasic/diagnostics"
	"github.com/sergev/sbasic/lang"
)

// stackLibrary keeps named LIFO stacks, created on first push.
type stackLibrary struct {
	stacks map[string][]lang.Value
}

func newStack(*settings) *lang.LibraryInstance {
	lib := &stackLibrary{stacks: make(map[string][]lang.Value)}
	return &lang.LibraryInstance{
		ID: lang.LibraryStack,
		Methods: map[string]lang.Method{
			"PushValue": {Arity: 2, Execute: lib.pushValue},
			"PopValue":  {Arity: 1, ReturnsValue: true, Execute: lib.popValue},
			"GetCount":  {Arity: 1, ReturnsValue: true, Execute: lib.getCount},
		},
	}
}

func (s *stackLibrary) pushValue(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
	value := e.Pop()
	name := popString(e)
	s.stacks[name] = append(s.stacks[name], value)
}

func (s *stackLibrary) popValue(e *lang.Engine, _ lang.Mode, rng diagnostics.Range) {
	name := popString(e)
	items := s.stacks[name]
	if len(items) == 0 {
		e.Fatal(diagnostics.New(diagnostics.PoppingAnEmptyStack, rng))
		return
	}
	e.Push(items[len(items)-1])
	s.stacks[name] = items[:len(items)-1]
}

func (s *stackLibrary) getCount(e *lang.Engine, _ lang.Mode, _ diagnostics.Range) {
	name := popString(e)
	e.Push(lang.NumberValue(float64(len(s.stacks[name]))))
}
